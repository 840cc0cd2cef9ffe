package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-docs-auth/internal/config"
	apperrors "github.com/jrsteele09/go-docs-auth/internal/errors"
	"github.com/jrsteele09/go-docs-auth/notify"
	"github.com/jrsteele09/go-docs-auth/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const maxResponseBytes = 1 << 20

// Client logs a user in against the remote login endpoint and owns the local
// session records. It never validates tokens: a stored access token means
// authenticated until Logout.
type Client struct {
	cfg              config.AuthConfig
	repo             sessions.Repo
	bus              notify.Bus
	httpClient       *http.Client
	logger           zerolog.Logger
	newRequestID     func() string
	storageAvailable bool
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for the login call
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger used for diagnostics
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestID sets the generator for the X-Request-ID login header
func WithRequestID(newRequestID func() string) ClientOption {
	return func(c *Client) {
		c.newRequestID = newRequestID
	}
}

// NewClient builds a Client. repo may be nil when cfg reports storage as
// unavailable; every accessor then reports "no session".
func NewClient(cfg config.AuthConfig, repo sessions.Repo, bus notify.Bus, options ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("[NewClient] config is required")
	}
	if bus == nil {
		return nil, errors.New("[NewClient] notification bus is required")
	}
	if cfg.GetStorageAvailable() && repo == nil {
		return nil, errors.New("[NewClient] session repo is required when storage is available")
	}

	c := &Client{
		cfg:              cfg,
		repo:             repo,
		bus:              bus,
		httpClient:       http.DefaultClient,
		logger:           log.Logger,
		newRequestID:     uuid.NewString,
		storageAvailable: cfg.GetStorageAvailable() && repo != nil,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginEnvelope struct {
	Data    json.RawMessage `json:"data"`
	Message json.RawMessage `json:"message"`
	Error   json.RawMessage `json:"error"`
}

// Login posts the credentials to the login endpoint. On a 2xx response the
// token, refresh token and user from the data object are stored and a
// session-started event is published. Login never returns an error; every
// failure is reported through the Result.
func (c *Client) Login(ctx context.Context, email, password string) Result {
	if !c.storageAvailable {
		return failed(apperrors.ErrStorageUnavailable, apperrors.ErrStorageUnavailable.Error())
	}

	requestID := c.newRequestID()
	logger := c.logger.With().Str("request_id", requestID).Logger()

	status, envelope, err := c.postLogin(ctx, requestID, email, password)
	if err != nil {
		logger.Error().Err(err).Msg("login request failed")
		message := err.Error()
		if message == "" {
			message = networkErrorMessage
		}
		return failed(apperrors.ErrNetwork, message)
	}

	if status < 200 || status > 299 {
		message := loginFailedMessage
		switch {
		case truthy(envelope.Message):
			message = jsString(envelope.Message)
		case truthy(envelope.Error):
			message = jsString(envelope.Error)
		}
		logger.Info().Int("status", status).Str("reason", message).Msg("login rejected")
		return failed(apperrors.ErrAuthFailure, message)
	}

	var data *LoginData
	if truthy(envelope.Data) {
		data = parseLoginData(envelope.Data)
		if err := c.store(data); err != nil {
			logger.Error().Err(err).Msg("storing session failed")
			return failed(apperrors.ErrStorageUnavailable, err.Error())
		}
	}

	logger.Info().Bool("has_data", data != nil).Msg("login succeeded")
	c.bus.Publish(notify.SessionStarted)
	return succeeded(data)
}

func (c *Client) postLogin(ctx context.Context, requestID, email, password string) (int, *loginEnvelope, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.GetLoginTimeout())
	defer cancel()

	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return 0, nil, fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GetLoginURL(), bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.cfg.GetLoginAuthorization())
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	// The body is decoded before the status is looked at, so a non-JSON error
	// page surfaces as a parse failure.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read login response: %w", err)
	}
	var envelope loginEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("decode login response: %w", err)
	}
	return resp.StatusCode, &envelope, nil
}

// store writes the three records one at a time. A failure part way leaves
// the earlier records in place.
func (c *Client) store(data *LoginData) error {
	if err := c.repo.Set(sessions.TokenKey, data.Token); err != nil {
		return errors.Wrap(err, "store token")
	}
	if err := c.repo.Set(sessions.RefreshTokenKey, data.RefreshToken); err != nil {
		return errors.Wrap(err, "store refresh token")
	}
	if err := c.repo.Set(sessions.UserKey, data.userJSON); err != nil {
		return errors.Wrap(err, "store user")
	}
	return nil
}

func parseLoginData(raw json.RawMessage) *LoginData {
	data := &LoginData{Raw: raw, userJSON: "{}"}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		// Not an object: every field reads as absent.
		return data
	}
	if truthy(fields["token"]) {
		data.Token = jsString(fields["token"])
	}
	if truthy(fields["refresh_token"]) {
		data.RefreshToken = jsString(fields["refresh_token"])
	}
	if user := fields["user"]; truthy(user) {
		var compact bytes.Buffer
		if err := json.Compact(&compact, user); err == nil {
			data.userJSON = compact.String()
		}
		var profile sessions.UserProfile
		if err := json.Unmarshal(user, &profile); err == nil {
			data.User = profile
		}
	}
	return data
}

// Logout removes every session record and publishes session-ended. It always
// succeeds; storage errors are logged.
func (c *Client) Logout() {
	if c.storageAvailable {
		for _, key := range sessions.Keys {
			if err := c.repo.Remove(key); err != nil {
				c.logger.Error().Err(err).Str("key", key).Msg("removing session record failed")
			}
		}
	}
	c.bus.Publish(notify.SessionEnded)
}

// IsAuthenticated reports whether a non-empty access token is stored. The
// token itself is not inspected.
func (c *Client) IsAuthenticated() bool {
	return c.GetToken() != ""
}

func (c *Client) GetToken() string {
	return c.read(sessions.TokenKey)
}

func (c *Client) GetRefreshToken() string {
	return c.read(sessions.RefreshTokenKey)
}

// GetUser returns the stored profile, or nil when none is stored or the
// stored value does not parse.
func (c *Client) GetUser() sessions.UserProfile {
	raw := c.read(sessions.UserKey)
	if raw == "" {
		return nil
	}
	user, err := sessions.ParseUserProfile(raw)
	if err != nil {
		c.logger.Warn().Err(err).Msg("stored user profile is not valid JSON")
		return nil
	}
	return user
}

// Session returns the stored session, or nil when not authenticated.
func (c *Client) Session() *sessions.Session {
	token := c.GetToken()
	if token == "" {
		return nil
	}
	return &sessions.Session{
		AccessToken:  token,
		RefreshToken: c.GetRefreshToken(),
		User:         c.GetUser(),
	}
}

func (c *Client) read(key string) string {
	if !c.storageAvailable {
		return ""
	}
	value, err := c.repo.Get(key)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			c.logger.Error().Err(err).Str("key", key).Msg("reading session record failed")
		}
		return ""
	}
	return value
}

// truthy reports whether raw holds a value other than null, false, a zero
// number or the empty string. Absent fields are falsy too.
func truthy(raw json.RawMessage) bool {
	text := strings.TrimSpace(string(raw))
	switch text {
	case "", "null", "false", `""`:
		return false
	}
	if n, err := strconv.ParseFloat(text, 64); err == nil {
		return n != 0
	}
	return true
}

// jsString returns a JSON string's value, or the raw JSON text for any
// other value.
func jsString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
