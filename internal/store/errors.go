package store

import "errors"

var (
	ErrRequestNotFound = errors.New("request not found")
	ErrSpareNotFound   = errors.New("spare part not found")
	ErrInvalidID       = errors.New("invalid id")
)
