package usecase

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrInvalidState means the install state was unknown, expired, or
	// already consumed. The installation attempt is never retried
	// automatically.
	ErrInvalidState = goerr.New("invalid or expired install state")

	// ErrExchangeFailed means the authorization server rejected the code.
	// The code is single-use by provider contract, so the exchange is
	// never retried with the same value.
	ErrExchangeFailed = goerr.New("authorization code exchange failed")
)
