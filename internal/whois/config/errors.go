package config

import (
	dErrors "structwhois/pkg/domain-errors"
)

var (
	// ErrInvalidTLD rejects malformed TLD labels at registration time.
	ErrInvalidTLD = dErrors.New(dErrors.CodeBadRequest, "invalid tld label")

	// ErrConfigConflict signals an additive override whose matching policy is
	// structurally incompatible with the spec it would merge into.
	ErrConfigConflict = dErrors.New(dErrors.CodeConflict, "field override conflicts with existing matching policy")

	// ErrUnknownField keeps base-field mutations on existing fields explicit.
	ErrUnknownField = dErrors.New(dErrors.CodeNotFound, "unknown base field")
)
