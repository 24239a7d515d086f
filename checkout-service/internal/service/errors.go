package service

import "errors"

var (
	ErrInvalidItems = errors.New("invalid items")
)
