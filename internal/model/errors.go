package model

import "errors"

var (
	ErrInvalidConfig          = errors.New("invalid configuration")
	ErrUnknownTechnique       = errors.New("unknown technique")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)
