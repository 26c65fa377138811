package bizerror

import (
	"errors"
	"fmt"
	"net/http"

	"backdesk/i18n"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidState    = errors.New("invalid state")
)

type BizError interface {
	Respond() *BizErrorDetail
}

type BizErrorDetail struct {
	Status  int
	Code    string
	Message string

	Data  interface{}
	Cause error
}

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return i18n.CommonBadParam
}
func (e *ErrBadParam) Respond() *BizErrorDetail {
	message := i18n.CommonBadParam
	if e.Cause != nil {
		message = e.Cause.Error()
	}
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: i18n.CommonBadParam, Message: message, Data: nil}
}

// ErrNotFound carries a human-readable message identifying the missing
// entity and its id. It is never retried internally.
type ErrNotFound struct {
	Message string
}

func NotFound(format string, args ...interface{}) *ErrNotFound {
	return &ErrNotFound{Message: fmt.Sprintf(format, args...)}
}

func (e *ErrNotFound) Error() string {
	return e.Message
}
func (e *ErrNotFound) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusNotFound, Code: i18n.CommonRecordNotFound, Message: e.Message, Data: nil}
}
