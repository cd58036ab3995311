package token

import (
	"errors"

	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/apperr"
)

var (
	ErrTokenNotFound      = apperr.NotFound("TOKEN_NOT_FOUND", "Token not found")
	ErrTokenNotActive     = apperr.NotFound("TOKEN_NOT_ACTIVE", "Token not found or already processed")
	ErrTokenNotOwned      = apperr.PreconditionFailed("TOKEN_NOT_OWNED", "Token does not belong to this patient")
	ErrAlreadyHasToken    = apperr.Conflict("ALREADY_HAS_TOKEN", "Patient already has a token")
	ErrTooFar             = apperr.PreconditionFailed("TOO_FAR_FROM_HOSPITAL", "Patient is too far from the hospital")
	ErrMissingField       = apperr.InvalidInput("MISSING_FIELD", "Missing required field")
	ErrInvalidCoordinates = apperr.InvalidInput("INVALID_COORDINATES", "Invalid coordinates")
	ErrInvalidFilter      = apperr.InvalidInput("INVALID_FILTER", "Invalid filter")
	ErrSequenceContention = apperr.Conflict("TOKEN_SEQUENCE_CONTENTION", "Could not allocate a token number, please retry")
	ErrPatientMissing     = apperr.NotFound("PATIENT_NOT_FOUND", "Patient not found for this token")
)

// errSequenceTaken is returned by repositories when the allocated number or
// sequence already exists. The service retries with a fresh sequence.
var errSequenceTaken = errors.New("token sequence already taken")
