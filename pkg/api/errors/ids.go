package errors

const (
	UnknownErrorID ErrorID = 0
)

// Access and quotas
const (
	APIKeyNotValidErrorID    ErrorID = 2
	APIKeyDisabledErrorID    ErrorID = 3
	TooManyRequestsErrorID   ErrorID = 4
	EventsRangeTooBigErrorID ErrorID = 10
)

// Validation
const (
	InvalidAddressErrorID ErrorID = 102
	InvalidSymbolErrorID  ErrorID = 103
	InvalidAmountErrorID  ErrorID = 104
	InvalidJSONErrorID    ErrorID = 105
	InvalidICAPErrorID    ErrorID = 106
)

// Token
const (
	AssetDoesNotExistErrorID     ErrorID = 301
	GatewayDoesNotExistErrorID   ErrorID = 302
	GatewayNotInitializedErrorID ErrorID = 303
	AccessDeniedErrorID          ErrorID = 304
	NoImplementationErrorID      ErrorID = 305
	UndeclaredMethodErrorID      ErrorID = 306
	NotGatewayErrorID            ErrorID = 307
	OracleFailureErrorID         ErrorID = 308
)
