package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ponderbot/ponder/pkg/cli/config"
	"github.com/ponderbot/ponder/pkg/domain/types"
	"github.com/ponderbot/ponder/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdWorkspaces() *cli.Command {
	return &cli.Command{
		Name:    "workspaces",
		Aliases: []string{"ws"},
		Usage:   "Manage installed workspaces",
		Commands: []*cli.Command{
			cmdWorkspacesList(),
			cmdWorkspacesDelete(),
		},
	}
}

func cmdWorkspacesList() *cli.Command {
	var repoCfg config.Repository

	return &cli.Command{
		Name:  "list",
		Usage: "List installed workspaces",
		Flags: repoCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			installations, err := repo.ListInstallations(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list installations")
			}

			logger.Info("Installed workspaces", "count", len(installations))
			for _, inst := range installations {
				logger.Info("Workspace",
					"team_id", inst.TeamID,
					"team_name", inst.TeamName,
					"bot_user_id", inst.BotUserID,
					"scope", inst.Scope,
					"installed_at", inst.InstalledAt,
					"updated_at", inst.UpdatedAt,
				)
			}

			return nil
		},
	}
}

func cmdWorkspacesDelete() *cli.Command {
	var repoCfg config.Repository
	var teamID string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "team-id",
			Usage:       "Team ID of the workspace to remove",
			Required:    true,
			Destination: &teamID,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "delete",
		Usage: "Remove a workspace installation and its stored credential",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			id := types.TeamID(teamID)
			if err := id.Validate(); err != nil {
				return goerr.Wrap(err, "invalid team ID")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			if err := repo.DeleteInstallation(ctx, id); err != nil {
				return goerr.Wrap(err, "failed to delete installation", goerr.V("team_id", id))
			}

			logger.Info("Workspace removed", "team_id", id)
			return nil
		},
	}
}
