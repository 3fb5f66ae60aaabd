package services

import "errors"

// Dataset errors
var (
	ErrEmptyUpload   = errors.New("uploaded file is empty")
	ErrBatchNotFound = errors.New("batch not found")
)

// Analytics errors
var (
	ErrNoSelection = errors.New("select a step or a parameter, or pass values")
)
