package repository

import "errors"

var (
	ErrNotFound         = errors.New("entity not found")
	ErrWriteFailed      = errors.New("write failed")
	ErrConnectionFailed = errors.New("storage connection failed")
)
