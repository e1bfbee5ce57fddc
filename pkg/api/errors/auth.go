package errors

import (
	"fmt"
	"net/http"
)

// Access and quotas
type accessError struct {
	genericError
}

type (
	APIKeyNotValidError    accessError
	APIKeyDisabledError    accessError
	TooManyRequestsError   accessError
	EventsRangeTooBigError accessError
)

var (
	ErrAPIKeyNotValid = &APIKeyNotValidError{
		genericError: genericError{
			ID:       APIKeyNotValidErrorID,
			HttpCode: http.StatusForbidden,
			Message:  "Provided API key is not correct",
		},
	}
	ErrAPIKeyDisabled = &APIKeyDisabledError{
		genericError: genericError{
			ID:       APIKeyDisabledErrorID,
			HttpCode: http.StatusForbidden,
			Message:  "API key disabled, mutating calls are not served",
		},
	}
	ErrTooManyRequests = &TooManyRequestsError{
		genericError: genericError{
			ID:       TooManyRequestsErrorID,
			HttpCode: http.StatusTooManyRequests,
			Message:  "Request rate limit exceeded",
		},
	}
)

func NewEventsRangeTooBigError(limit int) *EventsRangeTooBigError {
	return &EventsRangeTooBigError{
		genericError: genericError{
			ID:       EventsRangeTooBigErrorID,
			HttpCode: http.StatusBadRequest,
			Message:  fmt.Sprintf("Too many events requested: max limit is %d entries", limit),
		},
	}
}
