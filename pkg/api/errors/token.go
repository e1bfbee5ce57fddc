package errors

import (
	"net/http"
)

type tokenError struct {
	genericError
}

type (
	AssetDoesNotExistError     tokenError
	GatewayDoesNotExistError   tokenError
	GatewayNotInitializedError tokenError
	AccessDeniedError          tokenError
	NoImplementationError      tokenError
	UndeclaredMethodError      tokenError
	NotGatewayError            tokenError
	OracleFailureError         tokenError
)

var (
	AssetDoesNotExist = &AssetDoesNotExistError{
		genericError: genericError{
			ID:       AssetDoesNotExistErrorID,
			HttpCode: http.StatusNotFound,
			Message:  "asset does not exist",
		},
	}
	GatewayDoesNotExist = &GatewayDoesNotExistError{
		genericError: genericError{
			ID:       GatewayDoesNotExistErrorID,
			HttpCode: http.StatusNotFound,
			Message:  "no gateway for the asset",
		},
	}
	GatewayNotInitialized = &GatewayNotInitializedError{
		genericError: genericError{
			ID:       GatewayNotInitializedErrorID,
			HttpCode: http.StatusConflict,
			Message:  "gateway is not initialized",
		},
	}
	AccessDenied = &AccessDeniedError{
		genericError: genericError{
			ID:       AccessDeniedErrorID,
			HttpCode: http.StatusForbidden,
			Message:  "implementation has no access to the holder",
		},
	}
	NoImplementation = &NoImplementationError{
		genericError: genericError{
			ID:       NoImplementationErrorID,
			HttpCode: http.StatusServiceUnavailable,
			Message:  "no implementation for the holder",
		},
	}
	UndeclaredMethod = &UndeclaredMethodError{
		genericError: genericError{
			ID:       UndeclaredMethodErrorID,
			HttpCode: http.StatusBadRequest,
			Message:  "method is not declared by the implementation",
		},
	}
	NotGateway = &NotGatewayError{
		genericError: genericError{
			ID:       NotGatewayErrorID,
			HttpCode: http.StatusConflict,
			Message:  "gateway is not registered in the ledger",
		},
	}
	OracleFailure = &OracleFailureError{
		genericError: genericError{
			ID:       OracleFailureErrorID,
			HttpCode: http.StatusBadGateway,
			Message:  "compliance oracle failure",
		},
	}
)
