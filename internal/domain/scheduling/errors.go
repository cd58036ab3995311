package scheduling

import "github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/apperr"

var (
	ErrScheduleNotFound  = apperr.NotFound("SCHEDULE_NOT_FOUND", "Schedule not found")
	ErrTimeConflict      = apperr.Conflict("TIME_CONFLICT", "Room is already scheduled at this time")
	ErrScheduleNotActive = apperr.PreconditionFailed("SCHEDULE_NOT_ACTIVE", "Schedule is not active")
	ErrMissingField      = apperr.InvalidInput("MISSING_FIELD", "Missing required field")
	ErrInvalidDate       = apperr.InvalidInput("INVALID_DATE", "Invalid date, expected YYYY-MM-DD")
	ErrInvalidTime       = apperr.InvalidInput("INVALID_TIME", "Invalid time, expected HH:MM")
	ErrInvalidTimeRange  = apperr.InvalidInput("INVALID_TIME_RANGE", "Start time must be before end time")
	ErrInvalidRecurrence = apperr.InvalidInput("INVALID_RECURRENCE", "Invalid recurring pattern")
	ErrTooManyInstances  = apperr.InvalidInput("TOO_MANY_INSTANCES", "Recurring pattern expands to too many schedules")
	ErrInvalidStatus     = apperr.InvalidInput("INVALID_STATUS", "Invalid status")
	ErrInvalidWeek       = apperr.InvalidInput("INVALID_WEEK", "Invalid week, expected YYYY-WW")
	ErrInvalidAction     = apperr.InvalidInput("INVALID_ACTION", "Invalid action")
)
