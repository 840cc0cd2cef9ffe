// Package profile holds the presentation logic of the navbar profile menu and
// login form: what to show for a signed-in user and how a login is submitted.
package profile

import (
	"strings"
	"unicode/utf8"

	"github.com/jrsteele09/go-docs-auth/sessions"
)

// Initials returns up to two uppercase initials from the user's name, the
// first letter of the email when there is no name, and "U" otherwise.
func Initials(user sessions.UserProfile) string {
	if name := user.Name(); name != "" {
		var b strings.Builder
		for _, word := range strings.Split(name, " ") {
			if word == "" {
				continue
			}
			r, _ := utf8.DecodeRuneInString(word)
			b.WriteRune(r)
		}
		initials := []rune(strings.ToUpper(b.String()))
		if len(initials) > 2 {
			initials = initials[:2]
		}
		return string(initials)
	}
	if email := user.Email(); email != "" {
		r, _ := utf8.DecodeRuneInString(email)
		return strings.ToUpper(string(r))
	}
	return "U"
}

func DisplayName(user sessions.UserProfile) string {
	if name := user.Name(); name != "" {
		return name
	}
	return "User"
}

func DisplayEmail(user sessions.UserProfile) string {
	return user.Email()
}
