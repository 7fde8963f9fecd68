package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ponderbot/ponder/pkg/cli/config"
	httpctrl "github.com/ponderbot/ponder/pkg/controller/http"
	"github.com/ponderbot/ponder/pkg/service/state"
	"github.com/ponderbot/ponder/pkg/service/vault"
	"github.com/ponderbot/ponder/pkg/usecase"
	"github.com/ponderbot/ponder/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var baseURL string
	var appCfg config.App
	var repoCfg config.Repository
	var slackCfg config.Slack
	var vaultCfg config.Vault

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":3000",
			Sources:     cli.EnvVars("PONDER_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "External base URL of this server (e.g., https://ponder.example.com)",
			Sources:     cli.EnvVars("PONDER_BASE_URL"),
			Destination: &baseURL,
		},
	}

	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, vaultCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := slackCfg.Validate(); err != nil {
				return goerr.Wrap(err, "invalid slack configuration")
			}
			if baseURL == "" {
				return goerr.New("base-url is required to build the OAuth redirect URL")
			}

			botCfg, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load bot configuration")
			}

			cipher, err := vaultCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure credential encryption")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			credVault, err := vault.New(cipher, repo)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize credential vault")
			}

			states := state.New()
			states.StartJanitor(ctx, time.Minute)
			defer states.StopJanitor()

			oauthUC := usecase.NewOAuthUseCase(
				states,
				credVault,
				slackCfg.ClientID(),
				slackCfg.ClientSecret(),
				baseURL+"/slack/oauth_redirect",
				usecase.WithScopes(botCfg.Scopes),
			)
			eventUC := usecase.NewEventUseCases(repo, credVault,
				usecase.WithReplyText(botCfg.ReplyText),
			)
			uc := usecase.New(oauthUC, eventUC)

			httpHandler := httpctrl.New(
				httpctrl.WithOAuth(uc.OAuth),
				httpctrl.WithSlackWebhook(httpctrl.NewSlackWebhookHandler(uc.Event), slackCfg.SigningSecret()),
			)

			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server",
					"addr", addr,
					"base_url", baseURL,
					"backend", repoCfg.Backend(),
				)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
