package store

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrNothingToUpdate    = errors.New("nothing to update")
	ErrClientNotFound     = errors.New("client not found")
	ErrAdvisorUnavailable = errors.New("advisor unavailable")
	ErrAdvisorServing     = errors.New("advisor has a client in service")
	ErrClientInService    = errors.New("client in service")
	ErrBreakOpen          = errors.New("break already open")
	ErrNoOpenBreak        = errors.New("no open break")
)
