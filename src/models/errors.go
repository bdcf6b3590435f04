package models

import (
	"errors"
	"net/http"
)

var (
	ErrConfiguration         = errors.New("configuration error")
	ErrParamsMissing         = errors.New("required parameters missing")
	ErrMalformedPayload      = errors.New("malformed payload")
	ErrCSRFInvalid           = errors.New("csrf token mismatch")
	ErrInvalidSignature      = errors.New("invalid signature")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenExchange         = errors.New("token exchange failed")
	ErrProviderCommunication = errors.New("provider communication failed")
	ErrUserinfoMissing       = errors.New("userinfo incomplete")
	ErrAccountProvisioning   = errors.New("account provisioning failed")
	ErrIntegrityGuard        = errors.New("account has activity")
	ErrUserMismatch          = errors.New("binding belongs to another user")
	ErrNotFound              = errors.New("not found")
	ErrNameTaken             = errors.New("username already taken")
)

// HTTPStatus maps an error from the taxonomy above to a response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrParamsMissing), errors.Is(err, ErrMalformedPayload):
		return http.StatusBadRequest
	case errors.Is(err, ErrCSRFInvalid), errors.Is(err, ErrInvalidSignature), errors.Is(err, ErrTokenExpired):
		return http.StatusForbidden
	case errors.Is(err, ErrTokenExchange), errors.Is(err, ErrProviderCommunication), errors.Is(err, ErrUserinfoMissing):
		return http.StatusBadGateway
	case errors.Is(err, ErrIntegrityGuard), errors.Is(err, ErrUserMismatch):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
