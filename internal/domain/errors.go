package domain

import "errors"

var (
	ErrValidation       = errors.New("validation failed")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrGenerationFailed = errors.New("generation failed")
	ErrTransport        = errors.New("queue transport unavailable")
	ErrDelivery         = errors.New("delivery failed")
	ErrNotFound         = errors.New("not found")
)
