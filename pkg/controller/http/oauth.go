package http

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ponderbot/ponder/pkg/usecase"
	"github.com/ponderbot/ponder/pkg/utils/errutil"
	"github.com/ponderbot/ponder/pkg/utils/logging"
)

var installPageTmpl = template.Must(template.New("install").Parse(`<html><body>
<h1>Install Ponder</h1>
<p><a href="{{.InstallURL}}">Add to Slack</a></p>
</body></html>`))

var installedPageTmpl = template.Must(template.New("installed").Parse(`<html><body>
<h1>Installed</h1>
<p>Ponder is now available in <b>{{.TeamName}}</b>. Mention the bot or send it a DM.</p>
</body></html>`))

var installErrorPageTmpl = template.Must(template.New("install_error").Parse(`<html><body>
<h1>Installation failed</h1>
<p>{{.Reason}}</p>
<p><a href="/slack/install">Try again</a></p>
</body></html>`))

// installHandler serves the landing page with a fresh authorization link.
// Every page load issues a new single-use state.
func installHandler(oauthUC *usecase.OAuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		installURL, err := oauthUC.InstallURL(ctx)
		if err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to build install URL"), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := installPageTmpl.Execute(w, map[string]string{"InstallURL": installURL}); err != nil {
			logging.From(ctx).Error("failed to render install page", "error", err)
		}
	}
}

// oauthRedirectHandler finishes the install: the browser comes back here
// with either a provider error or a code+state pair.
func oauthRedirectHandler(oauthUC *usecase.OAuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		q := r.URL.Query()

		if denied := q.Get("error"); denied != "" {
			renderInstallError(w, r, http.StatusBadRequest, "The authorization was not granted: "+denied)
			return
		}

		code := q.Get("code")
		stateToken := q.Get("state")
		if code == "" || stateToken == "" {
			renderInstallError(w, r, http.StatusBadRequest, "Missing code or state parameter.")
			return
		}

		teamName, err := oauthUC.HandleCallback(ctx, code, stateToken)
		if err != nil {
			errutil.Handle(ctx, err, "oauth callback failed")
			switch {
			case errors.Is(err, usecase.ErrInvalidState):
				renderInstallError(w, r, http.StatusInternalServerError, "The installation link expired or was already used.")
			case errors.Is(err, usecase.ErrExchangeFailed):
				renderInstallError(w, r, http.StatusInternalServerError, "The authorization code was rejected.")
			default:
				renderInstallError(w, r, http.StatusInternalServerError, "The installation could not be completed.")
			}
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := installedPageTmpl.Execute(w, map[string]string{"TeamName": teamName}); err != nil {
			logging.From(ctx).Error("failed to render installed page", "error", err)
		}
	}
}

func renderInstallError(w http.ResponseWriter, r *http.Request, status int, reason string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := installErrorPageTmpl.Execute(w, map[string]string{"Reason": reason}); err != nil {
		logging.From(r.Context()).Error("failed to render install error page", "error", err)
	}
}
