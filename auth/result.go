package auth

import (
	"encoding/json"

	apperrors "github.com/jrsteele09/go-docs-auth/internal/errors"
	"github.com/jrsteele09/go-docs-auth/sessions"
)

// User-facing fallback messages for failed logins.
const (
	loginFailedMessage  = "Login failed. Please check your credentials."
	networkErrorMessage = "Network error. Please try again."
)

// LoginData is the data object of a successful login response.
type LoginData struct {
	Token        string
	RefreshToken string
	User         sessions.UserProfile
	Raw          json.RawMessage // data object exactly as received

	userJSON string
}

// Result is the outcome of Login. Exactly one of Data or Error is meaningful:
// Success with Data (nil when the response had no data object), or a failure
// with a human readable Error and a Kind from internal/errors.
type Result struct {
	Success bool
	Data    *LoginData
	Error   string
	Kind    error
}

// Is reports whether the result failed with the given kind.
func (r Result) Is(kind error) bool {
	return !r.Success && apperrors.Is(r.Kind, kind)
}

func succeeded(data *LoginData) Result {
	return Result{Success: true, Data: data}
}

func failed(kind error, message string) Result {
	return Result{Success: false, Error: message, Kind: kind}
}
