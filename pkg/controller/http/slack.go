package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ponderbot/ponder/pkg/usecase"
	"github.com/ponderbot/ponder/pkg/utils/async"
	"github.com/ponderbot/ponder/pkg/utils/errutil"
	"github.com/ponderbot/ponder/pkg/utils/logging"
	"github.com/ponderbot/ponder/pkg/utils/safe"
	"github.com/slack-go/slack/slackevents"
)

// signatureFreshness bounds |now - request timestamp|. Timestamps from the
// future are rejected the same as stale ones.
const signatureFreshness = 5 * time.Minute

// VerifySignature checks the v0 request signature: freshness of the
// timestamp header, then a constant-time digest comparison over
// "v0:<timestamp>:<body>".
func VerifySignature(signingSecret, timestamp, signature string, body []byte) error {
	if timestamp == "" {
		return goerr.New("missing timestamp")
	}

	if signature == "" {
		return goerr.New("missing signature")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return goerr.Wrap(err, "invalid timestamp")
	}

	now := time.Now().Unix()
	diff := now - ts
	if diff < 0 {
		diff = -diff
	}
	if diff > int64(signatureFreshness.Seconds()) {
		return goerr.New("timestamp outside freshness window", goerr.V("timestamp", timestamp), goerr.V("now", now))
	}

	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(signingSecret))
	if _, err := mac.Write([]byte(baseString)); err != nil {
		return goerr.Wrap(err, "failed to compute HMAC")
	}
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return goerr.New("signature mismatch")
	}

	return nil
}

// SlackSignatureMiddleware rejects requests whose signature does not
// verify. The body is consumed for verification and restored for the next
// handler.
func SlackSignatureMiddleware(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
				return
			}
			defer safe.Close(ctx, r.Body)

			timestamp := r.Header.Get("X-Slack-Request-Timestamp")
			signature := r.Header.Get("X-Slack-Signature")

			// Reject with one fixed body no matter which check failed, so the
			// response does not reveal whether the timestamp or the digest
			// was wrong. The reason stays in the logs.
			if err := VerifySignature(signingSecret, timestamp, signature, body); err != nil {
				errutil.Handle(ctx, goerr.Wrap(err, "signature verification failed"), "rejecting unverified webhook request")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				safe.Write(ctx, w, []byte(`{"error":"invalid signature"}`))
				return
			}

			r.Body = io.NopCloser(bytes.NewBuffer(body))
			next.ServeHTTP(w, r)
		})
	}
}

// SlackWebhookHandler handles Events API webhook requests
type SlackWebhookHandler struct {
	eventUC *usecase.EventUseCases
}

func NewSlackWebhookHandler(eventUC *usecase.EventUseCases) *SlackWebhookHandler {
	return &SlackWebhookHandler{
		eventUC: eventUC,
	}
}

// ServeHTTP acks the request before any event work happens. Signature
// verification already ran in the middleware.
func (h *SlackWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse event payload"), http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to unmarshal challenge"), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		resp, err := json.Marshal(map[string]string{"challenge": challenge.Challenge})
		if err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal challenge response"), http.StatusInternalServerError)
			return
		}
		safe.Write(ctx, w, resp)

	case slackevents.CallbackEvent:
		// Ack within Slack's 3 second deadline, then process in background
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		safe.Write(ctx, w, []byte(`{"status":"ok"}`))

		async.Dispatch(ctx, func(ctx context.Context) error {
			logger := logging.From(ctx)
			logger.Info("processing callback event",
				"inner_type", event.InnerEvent.Type,
				"team_id", event.TeamID,
			)

			if err := h.eventUC.HandleEvent(ctx, &event); err != nil {
				return goerr.Wrap(err, "failed to handle event")
			}

			return nil
		})

	default:
		logger := logging.From(ctx)
		logger.Warn("unknown event envelope type", "type", event.Type)
		w.WriteHeader(http.StatusOK)
	}
}
