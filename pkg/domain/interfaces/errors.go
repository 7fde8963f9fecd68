package interfaces

import "github.com/m-mizutani/goerr/v2"

// ErrInstallationNotFound is returned by GetInstallation when no record
// exists for the team ID. All repository backends return this same sentinel
// so callers can branch with errors.Is regardless of backend.
var ErrInstallationNotFound = goerr.New("installation not found")
