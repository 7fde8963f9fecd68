package cli_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/ponderbot/ponder/pkg/cli"
)

func TestWorkspacesListWithMemoryBackend(t *testing.T) {
	args := []string{"ponder", "workspaces", "list", "--repository-backend", "memory"}
	gt.NoError(t, cli.Run(context.Background(), args, "test"))
}

func TestWorkspacesDeleteRequiresTeamID(t *testing.T) {
	args := []string{"ponder", "workspaces", "delete", "--repository-backend", "memory"}
	gt.Error(t, cli.Run(context.Background(), args, "test"))
}

func TestServeRejectsMissingSlackConfig(t *testing.T) {
	args := []string{"ponder", "serve", "--repository-backend", "memory"}
	gt.Error(t, cli.Run(context.Background(), args, "test"))
}
