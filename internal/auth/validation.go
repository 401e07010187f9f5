// AngelaMos | 2026
// validation.go

package auth

import (
	"net/url"
	"regexp"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	MaxNameLength     = 20
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func isValidName(name string) bool {
	return utf8.RuneCountInString(name) <= MaxNameLength
}

// AvatarOrDefault falls back to a generated placeholder derived from
// the display name when no avatar has been set.
func AvatarOrDefault(avatar, name string) string {
	if avatar != "" {
		return avatar
	}
	if name == "" {
		name = "Reader"
	}
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name)
}
