package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	apiErrs "github.com/wavesplatform/etoken/pkg/api/errors"
	"github.com/wavesplatform/etoken/pkg/errs"
)

// BadRequestError represents a bad request error.
type BadRequestError struct {
	inner error
}

func (e *BadRequestError) Error() string {
	return e.inner.Error()
}

// tokenError converts hard errors of the token components into API errors.
func tokenError(err error) apiErrs.ApiError {
	switch {
	case errors.Is(err, errs.ErrNotInitialized):
		return apiErrs.GatewayNotInitialized
	case errors.Is(err, errs.ErrAccessDenied):
		return apiErrs.AccessDenied
	case errors.Is(err, errs.ErrNoImplementation):
		return apiErrs.NoImplementation
	case errors.Is(err, errs.ErrUndeclaredMethod):
		return apiErrs.UndeclaredMethod
	case errors.Is(err, errs.ErrNotGateway):
		return apiErrs.NotGateway
	case errors.Is(err, errs.OracleError{}):
		return apiErrs.OracleFailure
	default:
		return nil
	}
}

type ErrorHandler struct {
	logger *zap.Logger
}

func NewErrorHandler(logger *zap.Logger) ErrorHandler {
	return ErrorHandler{
		logger: logger,
	}
}

func (eh *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	// target errors
	var (
		badRequestError = &BadRequestError{}
		unknownError    = &apiErrs.UnknownError{}
		apiError        = apiErrs.ApiError(nil)
		// check that all targets implement the error interface
		_, _, _ = error(badRequestError), error(unknownError), error(apiError)
	)
	switch {
	case errors.As(err, &badRequestError):
		http.Error(w, fmt.Sprintf("Failed to complete request: %s", badRequestError.Error()), http.StatusBadRequest)
	case errors.As(err, &unknownError):
		eh.logger.Error("UnknownError",
			zap.String("proto", r.Proto),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		eh.sendApiErrJSON(w, r, unknownError)
	case errors.As(err, &apiError):
		eh.sendApiErrJSON(w, r, apiError)
	case tokenError(err) != nil:
		eh.logger.Debug("TokenError", zap.String("path", r.URL.Path), zap.Error(err))
		eh.sendApiErrJSON(w, r, tokenError(err))
	default:
		eh.logger.Error("InternalServerError",
			zap.String("proto", r.Proto),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		unknownErrWrapper := apiErrs.NewUnknownError(err)
		eh.sendApiErrJSON(w, r, unknownErrWrapper)
	}
}

func (eh *ErrorHandler) sendApiErrJSON(w http.ResponseWriter, r *http.Request, apiErr apiErrs.ApiError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.GetHttpCode())
	if encodeErr := json.NewEncoder(w).Encode(apiErr); encodeErr != nil {
		eh.logger.Error("Failed to marshal API Error to JSON",
			zap.String("proto", r.Proto),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(encodeErr),
			zap.String("api_error", apiErr.Error()),
		)
		// Type which implements ApiError interface MUST be serializable to JSON.
		panic(errors.Errorf("BUG, CREATE REPORT: %s", encodeErr.Error()))
	}
}
