package identity

import "errors"

var (
	// ErrInvalidCredentials means the provider rejected the email/password pair
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountExists means sign-up found an account for the email
	ErrAccountExists = errors.New("an account with this email already exists")
	// ErrSignupUnavailable means the provider has no sign-up endpoint configured
	ErrSignupUnavailable = errors.New("sign-up is not available")
	// ErrProviderUnavailable covers transport failures and unexpected provider responses
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// AuthError carries a user-facing reason alongside one of the sentinel errors
type AuthError struct {
	Err    error
	Reason string
	cause  error
}

func (e *AuthError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return e.Err.Error()
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is/As.
func (e *AuthError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Err, e.cause}
	}
	return []error{e.Err}
}

func newAuthError(kind error, reason string, cause error) *AuthError {
	return &AuthError{Err: kind, Reason: reason, cause: cause}
}
