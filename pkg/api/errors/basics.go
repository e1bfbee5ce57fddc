package errors

import (
	"net/http"
)

type ErrorID int

// ApiError is an error returned to API clients as JSON.
type ApiError interface {
	error
	GetID() ErrorID
	GetHttpCode() int
	GetMessage() string
}

type genericError struct {
	ID       ErrorID `json:"error"`
	HttpCode int     `json:"-"`
	Message  string  `json:"message"`
}

func (g *genericError) GetID() ErrorID {
	return g.ID
}

func (g *genericError) GetHttpCode() int {
	return g.HttpCode
}

func (g *genericError) GetMessage() string {
	return g.Message
}

func (g *genericError) Error() string {
	return g.Message
}

type UnknownError struct {
	genericError
	inner error
}

func (u *UnknownError) Unwrap() error {
	return u.inner
}

func NewUnknownError(inner error) *UnknownError {
	return &UnknownError{
		genericError: genericError{
			ID:       UnknownErrorID,
			HttpCode: http.StatusInternalServerError,
			Message:  "Error is unknown",
		},
		inner: inner,
	}
}
