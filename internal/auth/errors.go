package auth

import (
	"errors"
	"fmt"
)

// Code identifies an auth failure. Values follow the hosted provider's codes
// so the message table can be shared with the pages.
type Code string

const (
	CodeInvalidEmail        Code = "auth/invalid-email"
	CodeUserNotFound        Code = "auth/user-not-found"
	CodeWrongPassword       Code = "auth/wrong-password"
	CodeEmailAlreadyInUse   Code = "auth/email-already-in-use"
	CodeWeakPassword        Code = "auth/weak-password"
	CodePopupClosedByUser   Code = "auth/popup-closed-by-user"
	CodeOperationNotAllowed Code = "auth/operation-not-allowed"
	CodeInvalidCredential   Code = "auth/invalid-credential"
)

type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// ErrorCode extracts the code from err, or "" when err is not an auth error.
func ErrorCode(err error) Code {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Code
	}
	return ""
}
