package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"stockmind/internal/fallback"
	"stockmind/internal/provider"
)

// statusFor maps an error to the HTTP status of its failure envelope.
func statusFor(err error) int {
	var ve validator.ValidationErrors
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &ve), errors.Is(err, provider.ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, fallback.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
