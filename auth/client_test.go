package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-docs-auth/auth"
	"github.com/jrsteele09/go-docs-auth/internal/config"
	apperrors "github.com/jrsteele09/go-docs-auth/internal/errors"
	"github.com/jrsteele09/go-docs-auth/notify"
	"github.com/jrsteele09/go-docs-auth/notify/recorder"
	"github.com/jrsteele09/go-docs-auth/sessions"
	fakesessionrepo "github.com/jrsteele09/go-docs-auth/sessions/repofakes"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testEmail     = "a@x.com"
	testPassword  = "password123"
	testRequestID = "req-1"
	successBody   = `{"data":{"token":"abc","refresh_token":"def","user":{"name":"Alice","email":"a@x.com"}}}`
)

// testFixture holds all test dependencies
type testFixture struct {
	repo     *fakesessionrepo.FakeSessionRepo
	bus      *recorder.Recorder
	client   *auth.Client
	logs     *bytes.Buffer
	loginURL string

	lock     sync.Mutex
	requests []*capturedRequest
}

type capturedRequest struct {
	header http.Header
	method string
	body   map[string]string
}

// setupTestFixture starts a login endpoint that answers with status and body
func setupTestFixture(t *testing.T, status int, body string) *testFixture {
	t.Helper()

	f := &testFixture{
		repo: fakesessionrepo.NewFakeSessionRepo(),
		bus:  recorder.New(),
		logs: &bytes.Buffer{},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured := &capturedRequest{header: r.Header.Clone(), method: r.Method}
		_ = json.NewDecoder(r.Body).Decode(&captured.body)
		f.lock.Lock()
		f.requests = append(f.requests, captured)
		f.lock.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)

	f.loginURL = server.URL + "/auth/login"
	f.client = f.newClient(t, config.StaticAuth{
		LoginURL:         f.loginURL,
		StorageAvailable: true,
	})
	return f
}

func (f *testFixture) captured() []*capturedRequest {
	f.lock.Lock()
	defer f.lock.Unlock()

	return append([]*capturedRequest(nil), f.requests...)
}

func (f *testFixture) newClient(t *testing.T, cfg config.AuthConfig) *auth.Client {
	t.Helper()
	client, err := auth.NewClient(cfg, f.repo, f.bus,
		auth.WithLogger(zerolog.New(f.logs)),
		auth.WithRequestID(func() string { return testRequestID }),
	)
	require.NoError(t, err)
	return client
}

func (f *testFixture) stored(t *testing.T, key string) string {
	t.Helper()
	value, err := f.repo.Get(key)
	require.NoError(t, err)
	return value
}

func TestLoginSuccess(t *testing.T) {
	f := setupTestFixture(t, http.StatusOK, successBody)

	result := f.client.Login(context.Background(), testEmail, testPassword)
	require.True(t, result.Success)
	require.Empty(t, result.Error)
	require.NotNil(t, result.Data)
	require.Equal(t, "abc", result.Data.Token)
	require.Equal(t, "def", result.Data.RefreshToken)
	require.Equal(t, "Alice", result.Data.User.Name())
	require.JSONEq(t, `{"token":"abc","refresh_token":"def","user":{"name":"Alice","email":"a@x.com"}}`, string(result.Data.Raw))

	require.Equal(t, "abc", f.stored(t, sessions.TokenKey))
	require.Equal(t, "def", f.stored(t, sessions.RefreshTokenKey))
	require.JSONEq(t, `{"name":"Alice","email":"a@x.com"}`, f.stored(t, sessions.UserKey))

	require.True(t, f.client.IsAuthenticated())
	require.Equal(t, "abc", f.client.GetToken())
	require.Equal(t, "def", f.client.GetRefreshToken())
	require.Equal(t, "Alice", f.client.GetUser().Name())
	require.Equal(t, "a@x.com", f.client.GetUser().Email())

	require.Equal(t, 1, f.bus.Count(notify.SessionStarted))
	require.Zero(t, f.bus.Count(notify.SessionEnded))
}

func TestLoginRequestShape(t *testing.T) {
	f := setupTestFixture(t, http.StatusOK, successBody)

	f.client.Login(context.Background(), testEmail, testPassword)
	requests := f.captured()
	require.Len(t, requests, 1)

	req := requests[0]
	require.Equal(t, http.MethodPost, req.method)
	require.Equal(t, "application/json", req.header.Get("Content-Type"))
	require.Equal(t, "Bearer null", req.header.Get("Authorization"))
	require.Equal(t, testRequestID, req.header.Get("X-Request-ID"))
	require.Equal(t, map[string]string{"email": testEmail, "password": testPassword}, req.body)
}

func TestLoginAuthorizationOverride(t *testing.T) {
	f := setupTestFixture(t, http.StatusOK, successBody)
	client := f.newClient(t, config.StaticAuth{
		LoginURL:           f.loginURL,
		LoginAuthorization: "Bearer anonymous",
		StorageAvailable:   true,
	})

	require.True(t, client.Login(context.Background(), testEmail, testPassword).Success)
	requests := f.captured()
	require.Len(t, requests, 1)
	require.Equal(t, "Bearer anonymous", requests[0].header.Get("Authorization"))
}

func TestLoginRejected(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "message field", status: http.StatusUnauthorized, body: `{"message":"Invalid credentials"}`, message: "Invalid credentials"},
		{name: "error field", status: http.StatusForbidden, body: `{"error":"Account locked"}`, message: "Account locked"},
		{name: "message wins over error", status: http.StatusBadRequest, body: `{"message":"Bad","error":"Worse"}`, message: "Bad"},
		{name: "empty message falls through", status: http.StatusBadRequest, body: `{"message":"","error":"Worse"}`, message: "Worse"},
		{name: "no message", status: http.StatusInternalServerError, body: `{}`, message: "Login failed. Please check your credentials."},
		{name: "non string error", status: http.StatusBadRequest, body: `{"error":{"code":7}}`, message: `{"code":7}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t, tt.status, tt.body)

			result := f.client.Login(context.Background(), testEmail, testPassword)
			require.False(t, result.Success)
			require.Nil(t, result.Data)
			require.Equal(t, tt.message, result.Error)
			require.True(t, result.Is(apperrors.ErrAuthFailure))

			require.Zero(t, f.repo.Len())
			require.False(t, f.client.IsAuthenticated())
			require.Empty(t, f.bus.Events())
		})
	}
}

func TestLoginRejectedLeavesExistingSession(t *testing.T) {
	f := setupTestFixture(t, http.StatusUnauthorized, `{"message":"Invalid credentials"}`)
	require.NoError(t, f.repo.Set(sessions.TokenKey, "previous"))

	result := f.client.Login(context.Background(), testEmail, "wrong")
	require.Equal(t, auth.Result{Success: false, Error: "Invalid credentials", Kind: apperrors.ErrAuthFailure}, result)
	require.Equal(t, "previous", f.stored(t, sessions.TokenKey))
	require.Equal(t, 1, f.repo.Writes())
}

func TestLoginUnparsableBody(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "html on success", status: http.StatusOK, body: "<html>gateway</html>"},
		{name: "html on error", status: http.StatusBadGateway, body: "<html>gateway</html>"},
		{name: "trailing junk after valid json", status: http.StatusOK, body: successBody + "<html>oops</html>"},
		{name: "two json values", status: http.StatusOK, body: successBody + successBody},
		{name: "empty body", status: http.StatusOK, body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t, tt.status, tt.body)

			result := f.client.Login(context.Background(), testEmail, testPassword)
			require.False(t, result.Success)
			require.Nil(t, result.Data)
			require.True(t, result.Is(apperrors.ErrNetwork))
			require.Contains(t, result.Error, "decode login response")
			require.Zero(t, f.repo.Len())
			require.False(t, f.client.IsAuthenticated())
			require.Empty(t, f.bus.Events())
		})
	}
}

func TestLoginTransportFailure(t *testing.T) {
	f := setupTestFixture(t, http.StatusOK, successBody)
	client, err := auth.NewClient(config.StaticAuth{LoginURL: "http://login.invalid", StorageAvailable: true}, f.repo, f.bus,
		auth.WithLogger(zerolog.New(f.logs)),
		auth.WithHTTPClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})}),
	)
	require.NoError(t, err)

	result := client.Login(context.Background(), testEmail, testPassword)
	require.False(t, result.Success)
	require.True(t, result.Is(apperrors.ErrNetwork))
	require.Contains(t, result.Error, "connection refused")
	require.Contains(t, f.logs.String(), "login request failed")
	require.Empty(t, f.bus.Events())
}

func TestLoginTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)

	f := setupTestFixture(t, http.StatusOK, successBody)
	client := f.newClient(t, config.StaticAuth{
		LoginURL:         server.URL,
		LoginTimeout:     50 * time.Millisecond,
		StorageAvailable: true,
	})

	result := client.Login(context.Background(), testEmail, testPassword)
	require.True(t, result.Is(apperrors.ErrNetwork))
	require.NotEmpty(t, result.Error)
}

func TestLoginMissingFieldsFallBack(t *testing.T) {
	f := setupTestFixture(t, http.StatusOK, `{"data":{"token":"abc","user":null}}`)

	result := f.client.Login(context.Background(), testEmail, testPassword)
	require.True(t, result.Success)
	require.Equal(t, "abc", f.stored(t, sessions.TokenKey))
	require.Equal(t, "", f.stored(t, sessions.RefreshTokenKey))
	require.Equal(t, "{}", f.stored(t, sessions.UserKey))
	require.NotNil(t, f.client.GetUser())
	require.Empty(t, f.client.GetUser().Name())
}

func TestLoginZeroNumbersFallBack(t *testing.T) {
	f := setupTestFixture(t, http.StatusOK, `{"data":{"token":"abc","refresh_token":0.0,"user":-0}}`)

	require.True(t, f.client.Login(context.Background(), testEmail, testPassword).Success)
	require.Equal(t, "", f.stored(t, sessions.RefreshTokenKey))
	require.Equal(t, "{}", f.stored(t, sessions.UserKey))

	f = setupTestFixture(t, http.StatusOK, `{"data":{"token":0e0}}`)
	require.True(t, f.client.Login(context.Background(), testEmail, testPassword).Success)
	require.Equal(t, "", f.stored(t, sessions.TokenKey))
	require.False(t, f.client.IsAuthenticated())
}

func TestLoginNonZeroNumbersAreKept(t *testing.T) {
	f := setupTestFixture(t, http.StatusOK, `{"data":{"token":"abc","refresh_token":1.5}}`)

	require.True(t, f.client.Login(context.Background(), testEmail, testPassword).Success)
	require.Equal(t, "1.5", f.stored(t, sessions.RefreshTokenKey))
}

func TestLoginWithoutDataObject(t *testing.T) {
	f := setupTestFixture(t, http.StatusOK, `{"status":"ok"}`)

	result := f.client.Login(context.Background(), testEmail, testPassword)
	require.True(t, result.Success)
	require.Nil(t, result.Data)
	require.Zero(t, f.repo.Len())
	require.False(t, f.client.IsAuthenticated())
	require.Equal(t, 1, f.bus.Count(notify.SessionStarted))
}

func TestLoginEmptyTokenIsNotAuthenticated(t *testing.T) {
	f := setupTestFixture(t, http.StatusOK, `{"data":{"token":"","refresh_token":"def"}}`)

	require.True(t, f.client.Login(context.Background(), testEmail, testPassword).Success)
	require.Equal(t, "", f.stored(t, sessions.TokenKey))
	require.False(t, f.client.IsAuthenticated())
	require.Nil(t, f.client.Session())
}

func TestLoginPartialWriteIsNotRolledBack(t *testing.T) {
	f := setupTestFixture(t, http.StatusOK, successBody)
	f.repo.FailSet[sessions.UserKey] = errors.New("quota exceeded")

	result := f.client.Login(context.Background(), testEmail, testPassword)
	require.False(t, result.Success)
	require.True(t, result.Is(apperrors.ErrStorageUnavailable))
	require.Contains(t, result.Error, "quota exceeded")

	require.Equal(t, "abc", f.stored(t, sessions.TokenKey))
	require.True(t, f.client.IsAuthenticated())
	require.Nil(t, f.client.GetUser())
	require.Empty(t, f.bus.Events())
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t, http.StatusOK, successBody)
	require.True(t, f.client.Login(context.Background(), testEmail, testPassword).Success)

	f.client.Logout()

	for _, key := range sessions.Keys {
		_, err := f.repo.Get(key)
		require.ErrorIs(t, err, apperrors.ErrNotFound, key)
	}
	require.False(t, f.client.IsAuthenticated())
	require.Empty(t, f.client.GetToken())
	require.Empty(t, f.client.GetRefreshToken())
	require.Nil(t, f.client.GetUser())
	require.Equal(t, 1, f.bus.Count(notify.SessionEnded))
	require.Len(t, f.captured(), 1)
}

func TestLogoutWithoutSession(t *testing.T) {
	f := setupTestFixture(t, http.StatusOK, successBody)

	f.client.Logout()
	require.Equal(t, []notify.Event{notify.SessionEnded}, f.bus.Events())
	require.Empty(t, f.captured())
}

func TestLogoutFansOut(t *testing.T) {
	f := setupTestFixture(t, http.StatusOK, successBody)

	navbar, profile := 0, 0
	f.bus.Subscribe(notify.SessionEnded, func(notify.Event) { navbar++ })
	f.bus.Subscribe(notify.SessionEnded, func(notify.Event) { profile++ })

	f.client.Logout()
	require.Equal(t, 1, navbar)
	require.Equal(t, 1, profile)
}

func TestIsAuthenticatedTracksToken(t *testing.T) {
	f := setupTestFixture(t, http.StatusOK, successBody)

	require.False(t, f.client.IsAuthenticated())
	require.NoError(t, f.repo.Set(sessions.TokenKey, ""))
	require.False(t, f.client.IsAuthenticated())
	require.NoError(t, f.repo.Set(sessions.TokenKey, "t"))
	require.True(t, f.client.IsAuthenticated())
	require.NoError(t, f.repo.Remove(sessions.TokenKey))
	require.False(t, f.client.IsAuthenticated())
}

func TestGetUserUnparsable(t *testing.T) {
	f := setupTestFixture(t, http.StatusOK, successBody)
	require.NoError(t, f.repo.Set(sessions.UserKey, "{not json"))

	require.NotPanics(t, func() {
		require.Nil(t, f.client.GetUser())
	})
	require.Contains(t, f.logs.String(), "stored user profile is not valid JSON")
}

func TestSession(t *testing.T) {
	f := setupTestFixture(t, http.StatusOK, successBody)
	require.Nil(t, f.client.Session())

	require.True(t, f.client.Login(context.Background(), testEmail, testPassword).Success)
	session := f.client.Session()
	require.NotNil(t, session)
	require.Equal(t, "abc", session.AccessToken)
	require.Equal(t, "def", session.RefreshToken)
	require.Equal(t, "Alice", session.User.Name())
}

func TestStorageUnavailable(t *testing.T) {
	bus := recorder.New()
	client, err := auth.NewClient(config.StaticAuth{StorageAvailable: false}, nil, bus)
	require.NoError(t, err)

	require.False(t, client.IsAuthenticated())
	require.Empty(t, client.GetToken())
	require.Empty(t, client.GetRefreshToken())
	require.Nil(t, client.GetUser())
	require.Nil(t, client.Session())

	result := client.Login(context.Background(), testEmail, testPassword)
	require.False(t, result.Success)
	require.True(t, result.Is(apperrors.ErrStorageUnavailable))

	require.NotPanics(t, client.Logout)
	require.Equal(t, 1, bus.Count(notify.SessionEnded))
}

func TestStorageUnavailableIgnoresRepo(t *testing.T) {
	repo := fakesessionrepo.NewFakeSessionRepo()
	require.NoError(t, repo.Set(sessions.TokenKey, "abc"))

	client, err := auth.NewClient(config.StaticAuth{StorageAvailable: false}, repo, recorder.New())
	require.NoError(t, err)
	require.False(t, client.IsAuthenticated())

	client.Logout()
	value, err := repo.Get(sessions.TokenKey)
	require.NoError(t, err)
	require.Equal(t, "abc", value)
}

func TestNewClientValidation(t *testing.T) {
	_, err := auth.NewClient(nil, fakesessionrepo.NewFakeSessionRepo(), recorder.New())
	require.Error(t, err)

	_, err = auth.NewClient(config.StaticAuth{StorageAvailable: true}, fakesessionrepo.NewFakeSessionRepo(), nil)
	require.Error(t, err)

	_, err = auth.NewClient(config.StaticAuth{StorageAvailable: true}, nil, recorder.New())
	require.Error(t, err)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
