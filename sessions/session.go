package sessions

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Session is the authenticated-state triple held for one origin.
type Session struct {
	AccessToken  string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserProfile `json:"user"`
}

// UserProfile is the user object echoed by the login endpoint. No schema is
// enforced; name and email are the only fields read.
type UserProfile map[string]any

func (u UserProfile) Name() string {
	return u.stringField("name")
}

func (u UserProfile) Email() string {
	return u.stringField("email")
}

func (u UserProfile) stringField(field string) string {
	if s, ok := u[field].(string); ok {
		return s
	}
	return ""
}

// ParseUserProfile decodes a stored profile. A JSON null decodes to nil.
func ParseUserProfile(raw string) (UserProfile, error) {
	var user UserProfile
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("parse user profile: %w", err)
	}
	return user, nil
}

// OriginFromURL returns scheme://host[:port] for rawURL, the scope a session
// belongs to.
func OriginFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse origin url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q has no origin", rawURL)
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), nil
}
