package session

import "errors"

var (
	ErrAlreadyConnected = errors.New("session: account already has an active connection")
	ErrNotFound         = errors.New("session: no session for this account")
	ErrWrongState       = errors.New("session: operation not valid in current state")
	ErrAuthTimeout      = errors.New("session: authentication deadline exceeded")
)
