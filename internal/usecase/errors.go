package usecase

import "errors"

var (
	ErrUnknownPanel    = errors.New("unknown panel")
	ErrUnknownTab      = errors.New("unknown tab")
	ErrInvalidCategory = errors.New("invalid feed category")
)
