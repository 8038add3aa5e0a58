package pricing

import "errors"

var (
	// ErrInvalidWeight marks a negative or otherwise unusable carat/gold weight.
	ErrInvalidWeight = errors.New("invalid weight")
	// ErrInvalidConfig marks a pricing config that fails validation and must not be saved or used.
	ErrInvalidConfig = errors.New("invalid pricing config")
	// ErrConfigNotFound is returned when the singleton config row has not been seeded yet.
	ErrConfigNotFound = errors.New("pricing config not found")
)
