package usecase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ponderbot/ponder/pkg/domain/types"
	"github.com/ponderbot/ponder/pkg/service/state"
	"github.com/ponderbot/ponder/pkg/service/vault"
	"github.com/ponderbot/ponder/pkg/utils/safe"
)

const (
	defaultAuthorizeURL = "https://slack.com/oauth/v2/authorize"
	defaultTokenURL     = "https://slack.com/api/oauth.v2.access"
)

// DefaultScopes are the bot scopes requested on installation
var DefaultScopes = []string{
	"app_mentions:read",
	"chat:write",
	"channels:read",
	"groups:read",
	"im:read",
	"mpim:read",
}

// OAuthUseCase drives the workspace installation flow: state issue, the
// code-for-token exchange, and credential storage.
type OAuthUseCase struct {
	states       *state.Store
	vault        *vault.Vault
	clientID     string
	clientSecret string
	redirectURI  string
	scopes       []string
	authorizeURL string
	tokenURL     string
	httpClient   *http.Client
}

// OAuthOption is a functional option for OAuthUseCase
type OAuthOption func(*OAuthUseCase)

// WithScopes overrides the requested bot scopes
func WithScopes(scopes []string) OAuthOption {
	return func(uc *OAuthUseCase) {
		if len(scopes) > 0 {
			uc.scopes = scopes
		}
	}
}

// WithAuthorizeURL overrides the authorization endpoint (tests)
func WithAuthorizeURL(u string) OAuthOption {
	return func(uc *OAuthUseCase) {
		uc.authorizeURL = u
	}
}

// WithTokenURL overrides the token exchange endpoint (tests)
func WithTokenURL(u string) OAuthOption {
	return func(uc *OAuthUseCase) {
		uc.tokenURL = u
	}
}

// WithHTTPClient overrides the HTTP client used for the exchange
func WithHTTPClient(c *http.Client) OAuthOption {
	return func(uc *OAuthUseCase) {
		uc.httpClient = c
	}
}

func NewOAuthUseCase(states *state.Store, v *vault.Vault, clientID, clientSecret, redirectURI string, opts ...OAuthOption) *OAuthUseCase {
	uc := &OAuthUseCase{
		states:       states,
		vault:        v,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		scopes:       DefaultScopes,
		authorizeURL: defaultAuthorizeURL,
		tokenURL:     defaultTokenURL,
		httpClient:   http.DefaultClient,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// InstallURL issues a fresh state and returns the external authorization
// URL the installer's browser should be sent to.
func (uc *OAuthUseCase) InstallURL(ctx context.Context) (string, error) {
	stateToken, err := uc.states.Issue(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to issue install state")
	}

	params := url.Values{}
	params.Set("client_id", uc.clientID)
	params.Set("scope", strings.Join(uc.scopes, ","))
	params.Set("redirect_uri", uc.redirectURI)
	params.Set("state", stateToken)

	return uc.authorizeURL + "?" + params.Encode(), nil
}

// oauthV2Response is the Slack oauth.v2.access response envelope
type oauthV2Response struct {
	OK          bool   `json:"ok"`
	Error       string `json:"error"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	BotUserID   string `json:"bot_user_id"`
	Team        struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
}

// HandleCallback consumes the state, exchanges the code and stores the
// resulting credential. Returns the installed workspace's display name.
func (uc *OAuthUseCase) HandleCallback(ctx context.Context, code, stateToken string) (string, error) {
	if !uc.states.Consume(stateToken) {
		return "", goerr.Wrap(ErrInvalidState, "state rejected")
	}

	tokenResp, err := uc.exchangeCode(ctx, code)
	if err != nil {
		return "", err
	}

	if err := uc.vault.Save(ctx,
		types.TeamID(tokenResp.Team.ID),
		tokenResp.Team.Name,
		tokenResp.AccessToken,
		types.UserID(tokenResp.BotUserID),
		tokenResp.Scope,
	); err != nil {
		return "", goerr.Wrap(err, "failed to store installation credential", goerr.V("team_id", tokenResp.Team.ID))
	}

	return tokenResp.Team.Name, nil
}

// exchangeCode exchanges the authorization code for a bot token
func (uc *OAuthUseCase) exchangeCode(ctx context.Context, code string) (*oauthV2Response, error) {
	data := url.Values{}
	data.Set("client_id", uc.clientID)
	data.Set("client_secret", uc.clientSecret)
	data.Set("code", code)
	data.Set("redirect_uri", uc.redirectURI)

	encoded := data.Encode()
	req, err := http.NewRequestWithContext(ctx, "POST", uc.tokenURL, strings.NewReader(encoded))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.ContentLength = int64(len(encoded))

	resp, err := uc.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to make token request")
	}
	defer safe.Close(ctx, resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read token response")
	}

	var tokenResp oauthV2Response
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, goerr.Wrap(err, "failed to parse token response")
	}

	if !tokenResp.OK {
		return nil, goerr.Wrap(ErrExchangeFailed, "provider rejected the code", goerr.V("slack_error", tokenResp.Error))
	}

	return &tokenResp, nil
}
