package catalog

import "errors"

var (
	ErrDeckNotFound      = errors.New("deck not found")
	ErrCardNotFound      = errors.New("card not found")
	ErrDuplicateDeckName = errors.New("a deck with this name already exists")
	ErrEmptyDeckName     = errors.New("deck name cannot be empty")
	ErrEmptyFront        = errors.New("front cannot be empty")
	ErrEmptyBack         = errors.New("back cannot be empty")
)
