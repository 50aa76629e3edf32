package models

import "errors"

// ErrInvalidInput marks malformed series or parameters. It is never retried.
var ErrInvalidInput = errors.New("invalid input")
