package persist

import "errors"

var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrPersistence     = errors.New("persistence failure")
	ErrCorruptSnapshot = errors.New("corrupt cart snapshot")
)
