package sessions

// Repo is the key-value persistence behind a session. Implementations are
// scoped to a single origin and store values in clear text.
//
// Writes across keys are independent: a failure between two Set calls leaves
// the session partially written and nothing repairs it.
type Repo interface {
	// Set overwrites the value stored under key
	Set(key, value string) error

	// Get returns the value stored under key, or errors.ErrNotFound
	Get(key string) (string, error)

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}

// Keys under which the three session records are stored.
const (
	TokenKey        = "auth_token"
	RefreshTokenKey = "auth_refresh_token"
	UserKey         = "auth_user"
)

// Keys lists every session record key.
var Keys = []string{TokenKey, RefreshTokenKey, UserKey}
