// Package domain defines domain-level errors for the inspection feature.
package domain

import (
	"errors"
	"strings"
)

// Domain errors for the inspection pipeline.
// The orchestrator wraps the concrete cause with one of these so transport can map it with errors.Is.
var (
	// ErrInvalidInput indicates an unsupported content type, an oversized payload,
	// unparseable image bytes or out-of-range parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBackendUnavailable indicates the requested model id is not loaded.
	// The pipeline never falls back to a different backend.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrInferenceFailure indicates the backend call itself failed.
	ErrInferenceFailure = errors.New("inference failed")
)

// Message returns the client-facing part of an error produced as "<kind>: <message>".
// Errors of another shape are returned unchanged.
func Message(err, kind error) string {
	return strings.TrimPrefix(err.Error(), kind.Error()+": ")
}
