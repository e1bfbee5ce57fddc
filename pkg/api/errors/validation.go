package errors

import (
	"net/http"
)

type validationError struct {
	genericError
}

type (
	InvalidAddressError validationError
	InvalidSymbolError  validationError
	InvalidAmountError  validationError
	InvalidJSONError    validationError
	InvalidICAPError    validationError
)

var (
	InvalidAddress = &InvalidAddressError{
		genericError: genericError{
			ID:       InvalidAddressErrorID,
			HttpCode: http.StatusBadRequest,
			Message:  "invalid address",
		},
	}
	InvalidSymbol = &InvalidSymbolError{
		genericError: genericError{
			ID:       InvalidSymbolErrorID,
			HttpCode: http.StatusBadRequest,
			Message:  "invalid asset symbol",
		},
	}
	InvalidAmount = &InvalidAmountError{
		genericError: genericError{
			ID:       InvalidAmountErrorID,
			HttpCode: http.StatusBadRequest,
			Message:  "invalid amount",
		},
	}
	InvalidJSON = &InvalidJSONError{
		genericError: genericError{
			ID:       InvalidJSONErrorID,
			HttpCode: http.StatusBadRequest,
			Message:  "failed to parse json message",
		},
	}
	InvalidICAP = &InvalidICAPError{
		genericError: genericError{
			ID:       InvalidICAPErrorID,
			HttpCode: http.StatusBadRequest,
			Message:  "invalid ICAP code",
		},
	}
)
