package engine

import "errors"

// Operation errors, in taxonomy form. Handlers map these to user-facing
// messages with UserMessage; raw store errors never cross the engine
// boundary on authentication paths.
var (
	// ErrInvalidCredential covers both unknown email and wrong PIN. The two
	// cases are deliberately indistinguishable to the caller.
	ErrInvalidCredential = errors.New("invalid credentials")
	// ErrPINNotSet means the account exists but has never set a PIN.
	ErrPINNotSet = errors.New("pin not set")
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means identifier allocation gave up after retries.
	ErrConflict = errors.New("identifier allocation conflict")
	// ErrPermission means the remote store rejected the operation under its
	// access rules.
	ErrPermission = errors.New("permission denied")
)

// UserMessage returns the text safe to show a user for err. Authentication
// failures always collapse to the generic taxonomy message; anything else
// surfaces its own text for diagnostics.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredential):
		return "Invalid credentials"
	case errors.Is(err, ErrPINNotSet):
		return "PIN not set for this account"
	case errors.Is(err, ErrNotFound):
		return "Record not found"
	case errors.Is(err, ErrConflict):
		return "Could not allocate an identifier, please retry"
	case errors.Is(err, ErrPermission):
		return "Not permitted"
	default:
		return err.Error()
	}
}
