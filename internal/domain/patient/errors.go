package patient

import "github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/apperr"

var (
	ErrPatientNotFound  = apperr.NotFound("PATIENT_NOT_FOUND", "Patient not found")
	ErrBindingNotFound  = apperr.NotFound("BINDING_NOT_FOUND", "Hospital location not found for patient")
	ErrMobileExists     = apperr.Conflict("MOBILE_EXISTS", "Patient with this mobile number already exists")
	ErrNationalIDExists = apperr.Conflict("NATIONAL_ID_EXISTS", "Patient with this Aadhaar number already exists")
	ErrMissingField     = apperr.InvalidInput("MISSING_FIELD", "Missing required field")
	ErrInvalidField     = apperr.InvalidInput("INVALID_FIELD", "Invalid field")
)
