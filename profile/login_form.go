package profile

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-docs-auth/auth"
	apperrors "github.com/jrsteele09/go-docs-auth/internal/errors"
)

const unexpectedErrorMessage = "Login failed. Please try again."

// Authenticator is the part of auth.Client a login form needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) auth.Result
}

// LoginForm holds the transient state of a login dialog. Only one submission
// may be in flight; the in-flight state is never persisted.
type LoginForm struct {
	authenticator Authenticator

	lock       sync.Mutex
	email      string
	password   string
	errMessage string
	submitting bool
}

func NewLoginForm(authenticator Authenticator) *LoginForm {
	return &LoginForm{authenticator: authenticator}
}

func (f *LoginForm) SetEmail(email string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.email = email
}

func (f *LoginForm) SetPassword(password string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.password = password
}

// Submitting reports whether a login call is in flight.
func (f *LoginForm) Submitting() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.submitting
}

// Error is the message shown for the last failed submission.
func (f *LoginForm) Error() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.errMessage
}

func (f *LoginForm) Email() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.email
}

// Submit validates the fields and performs the login. It returns
// ErrLoginInProgress while another submission is running and ErrValidation
// for blank fields; otherwise the login Result. A successful login clears the
// form.
func (f *LoginForm) Submit(ctx context.Context) (auth.Result, error) {
	f.lock.Lock()
	if f.submitting {
		f.lock.Unlock()
		return auth.Result{}, apperrors.ErrLoginInProgress
	}
	email, password := f.email, f.password
	if err := auth.ValidateCredentials(email, password); err != nil {
		f.errMessage = err.Error()
		f.lock.Unlock()
		return auth.Result{}, err
	}
	f.submitting = true
	f.errMessage = ""
	f.lock.Unlock()

	result := f.authenticator.Login(ctx, email, password)

	f.lock.Lock()
	defer f.lock.Unlock()
	f.submitting = false
	if result.Success {
		f.reset()
		return result, nil
	}
	f.errMessage = result.Error
	if f.errMessage == "" {
		f.errMessage = unexpectedErrorMessage
	}
	return result, nil
}

// Close discards the form's contents.
func (f *LoginForm) Close() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.reset()
}

func (f *LoginForm) reset() {
	f.email = ""
	f.password = ""
	f.errMessage = ""
}
