package config

import "time"

const (
	DefaultLoginURL           = "https://api1.pepsales.xyz/auth/login"
	DefaultAPIBaseURL         = "https://api1.pepsales.xyz"
	DefaultLoginAuthorization = "Bearer null"
	DefaultLoginTimeout       = 30 * time.Second
)

const (
	loginURLVar           = "DOCS_AUTH_LOGIN_URL"
	loginAuthorizationVar = "DOCS_AUTH_LOGIN_AUTHORIZATION"
	apiBaseURLVar         = "DOCS_AUTH_API_BASE_URL"
	loginTimeoutVar       = "DOCS_AUTH_LOGIN_TIMEOUT"
	storageAvailableVar   = "DOCS_AUTH_STORAGE_AVAILABLE"
)

// AuthConfig holds the deployment constants of the login call.
type AuthConfig interface {
	GetLoginURL() string
	// GetLoginAuthorization is the Authorization header sent with the
	// unauthenticated login request.
	GetLoginAuthorization() string
	GetAPIBaseURL() string
	GetLoginTimeout() time.Duration
	// GetStorageAvailable reports whether a persistent session store exists
	// in this execution context. When false every accessor degrades to "no
	// session".
	GetStorageAvailable() bool
}

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetLoginURL() string {
	return GetEnv(loginURLVar, DefaultLoginURL)
}

func (Auth) GetLoginAuthorization() string {
	return GetEnv(loginAuthorizationVar, DefaultLoginAuthorization)
}

func (Auth) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, DefaultAPIBaseURL)
}

func (Auth) GetLoginTimeout() time.Duration {
	return GetEnvDuration(loginTimeoutVar, DefaultLoginTimeout)
}

func (Auth) GetStorageAvailable() bool {
	return GetEnvBool(storageAvailableVar, true) && Storage{}.GetStoreDriver() != StoreDriverNone
}

// StaticAuth is an AuthConfig with fixed values, for callers that do not
// read the environment. Zero fields fall back to the defaults.
type StaticAuth struct {
	LoginURL           string
	LoginAuthorization string
	APIBaseURL         string
	LoginTimeout       time.Duration
	StorageAvailable   bool
}

var _ AuthConfig = StaticAuth{}

func (s StaticAuth) GetLoginURL() string {
	if s.LoginURL == "" {
		return DefaultLoginURL
	}
	return s.LoginURL
}

func (s StaticAuth) GetLoginAuthorization() string {
	if s.LoginAuthorization == "" {
		return DefaultLoginAuthorization
	}
	return s.LoginAuthorization
}

func (s StaticAuth) GetAPIBaseURL() string {
	if s.APIBaseURL == "" {
		return DefaultAPIBaseURL
	}
	return s.APIBaseURL
}

func (s StaticAuth) GetLoginTimeout() time.Duration {
	if s.LoginTimeout <= 0 {
		return DefaultLoginTimeout
	}
	return s.LoginTimeout
}

func (s StaticAuth) GetStorageAvailable() bool {
	return s.StorageAvailable
}
