package http

import "errors"

var (
	errInvalidAnswer      = errors.New("invalid answer payload")
	errUnsupportedMessage = errors.New("unsupported message type")
)
