package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/ponderbot/ponder/pkg/controller/http"
	"github.com/ponderbot/ponder/pkg/repository/memory"
	"github.com/ponderbot/ponder/pkg/service/state"
	"github.com/ponderbot/ponder/pkg/service/vault"
	"github.com/ponderbot/ponder/pkg/usecase"
)

type oauthTestEnv struct {
	srv    *httpctrl.Server
	states *state.Store
	repo   *memory.Memory
}

func newOAuthTestServer(t *testing.T, tokenURL string) *oauthTestEnv {
	t.Helper()

	repo := memory.New()
	cipher, err := vault.NewCipher(make([]byte, vault.KeySize))
	gt.NoError(t, err).Required()
	v, err := vault.New(cipher, repo)
	gt.NoError(t, err).Required()

	states := state.New()

	opts := []usecase.OAuthOption{}
	if tokenURL != "" {
		opts = append(opts, usecase.WithTokenURL(tokenURL))
	}
	oauthUC := usecase.NewOAuthUseCase(states, v, "client-123", "secret-456", "https://bot.example.com/slack/oauth_redirect", opts...)

	srv := httpctrl.New(httpctrl.WithOAuth(oauthUC))
	return &oauthTestEnv{srv: srv, states: states, repo: repo}
}

func TestInstallPage(t *testing.T) {
	env := newOAuthTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/slack/install", nil)
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusOK)
	page := rec.Body.String()
	gt.Bool(t, strings.Contains(page, "slack.com/oauth/v2/authorize")).True()
	gt.Bool(t, strings.Contains(page, "client_id=client-123")).True()
	gt.Bool(t, strings.Contains(page, "state=")).True()
}

func TestOAuthRedirectSuccess(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "access_token": "xoxb-new", "bot_user_id": "U9", "scope": "chat:write", "team": {"id": "T9", "name": "Redirect & Co"}}`))
	}))
	defer tokenServer.Close()

	env := newOAuthTestServer(t, tokenServer.URL)

	stateToken, err := env.states.Issue(context.Background())
	gt.NoError(t, err).Required()

	target := "/slack/oauth_redirect?" + url.Values{"code": {"code-1"}, "state": {stateToken}}.Encode()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusOK)
	// team name is HTML-escaped on the confirmation page
	gt.Bool(t, strings.Contains(rec.Body.String(), "Redirect &amp; Co")).True()

	all, err := env.repo.ListInstallations(req.Context())
	gt.NoError(t, err).Required()
	gt.Array(t, all).Length(1)
}

func TestOAuthRedirectProviderError(t *testing.T) {
	env := newOAuthTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/slack/oauth_redirect?error=access_denied", nil)
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	gt.Bool(t, strings.Contains(rec.Body.String(), "access_denied")).True()
}

func TestOAuthRedirectMissingParams(t *testing.T) {
	env := newOAuthTestServer(t, "")

	for _, target := range []string{
		"/slack/oauth_redirect",
		"/slack/oauth_redirect?code=only-code",
		"/slack/oauth_redirect?state=only-state",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		env.srv.ServeHTTP(rec, req)

		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	}
}

func TestOAuthRedirectReplayedState(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "access_token": "xoxb-new", "bot_user_id": "U9", "team": {"id": "T9", "name": "Once"}}`))
	}))
	defer tokenServer.Close()

	env := newOAuthTestServer(t, tokenServer.URL)

	stateToken, err := env.states.Issue(context.Background())
	gt.NoError(t, err).Required()

	target := "/slack/oauth_redirect?" + url.Values{"code": {"code-1"}, "state": {stateToken}}.Encode()

	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	gt.Number(t, rec.Code).Equal(http.StatusInternalServerError)
}

func TestOAuthRedirectRejectedExchange(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": false, "error": "invalid_code"}`))
	}))
	defer tokenServer.Close()

	env := newOAuthTestServer(t, tokenServer.URL)

	stateToken, err := env.states.Issue(context.Background())
	gt.NoError(t, err).Required()

	target := "/slack/oauth_redirect?" + url.Values{"code": {"bad"}, "state": {stateToken}}.Encode()
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	gt.Number(t, rec.Code).Equal(http.StatusInternalServerError)

	all, err := env.repo.ListInstallations(context.Background())
	gt.NoError(t, err).Required()
	gt.Array(t, all).Length(0)
}
