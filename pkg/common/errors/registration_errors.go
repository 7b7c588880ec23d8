// Package errors holds the errors shared between the registration service and the web layer.
//
// 使用实例
//
//	if errors.Is(err, apperrors.ErrUsernameTaken) {
//		// 400
//	}
//
//	var hzErr *hzte.Error
//	if errors.As(err, &hzErr) && hzErr.IsType(hzte.ErrorTypePublic) {
//		// message is safe to show
//	}
package errors

import (
	"errors"
	"net/http"

	hzte "github.com/cloudwego/hertz/pkg/common/errors"
)

// 定义原始错误
var (
	rawErrUsernameTaken       = errors.New("user already exists")
	rawErrChallengeRejected   = errors.New("challenge verification failed")
	rawErrRegistrationRefused = errors.New("registration rejected by backend")
	rawErrBackendUnavailable  = errors.New("account backend unavailable")
	rawErrLoginFailed         = errors.New("login after registration failed")
)

// 包装成 Hertz 错误类型
var (
	ErrUsernameTaken       = hzte.New(rawErrUsernameTaken, hzte.ErrorTypePublic, nil)
	ErrChallengeRejected   = hzte.New(rawErrChallengeRejected, hzte.ErrorTypePublic, nil)
	ErrRegistrationRefused = hzte.New(rawErrRegistrationRefused, hzte.ErrorTypePublic, nil)
	ErrBackendUnavailable  = hzte.New(rawErrBackendUnavailable, hzte.ErrorTypePrivate, nil)
	ErrLoginFailed         = hzte.New(rawErrLoginFailed, hzte.ErrorTypePrivate, nil)
)

// NewChallengeRejected carries the assessment details (score, action) as metadata.
func NewChallengeRejected(meta interface{}) *hzte.Error {
	return hzte.New(rawErrChallengeRejected, hzte.ErrorTypePublic, meta)
}

// NewRegistrationRefused carries the backend status code as metadata.
func NewRegistrationRefused(meta interface{}) *hzte.Error {
	return hzte.New(rawErrRegistrationRefused, hzte.ErrorTypePublic, meta)
}

// StatusOf maps a registration error onto the status the web layer answers with.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case matches(err, rawErrChallengeRejected):
		return http.StatusUnauthorized
	case matches(err, rawErrUsernameTaken):
		return http.StatusBadRequest
	case matches(err, rawErrRegistrationRefused), matches(err, rawErrBackendUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns a message that is safe to render to the user.
func PublicMessage(err error) string {
	var hzErr *hzte.Error
	if errors.As(err, &hzErr) && hzErr.IsType(hzte.ErrorTypePublic) {
		return hzErr.Err.Error()
	}
	return "internal server error"
}

func matches(err, raw error) bool {
	if errors.Is(err, raw) {
		return true
	}
	var hzErr *hzte.Error
	return errors.As(err, &hzErr) && hzErr.Err == raw
}
