// AngelaMos | 2026
// validation.go

package user

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/storyhaven/storyhaven-api/internal/core"
)

// platformDomains maps each social platform to the hosts a link may
// point at. A subdomain of an allowed host is also accepted.
var platformDomains = map[string][]string{
	"facebook":  {"facebook.com", "fb.com"},
	"twitter":   {"twitter.com", "x.com"},
	"instagram": {"instagram.com"},
	"youtube":   {"youtube.com", "youtu.be"},
}

func invalidPlatformURL(platform string) *core.AppError {
	return core.BadRequestError(
		"INVALID_"+strings.ToUpper(platform)+"_URL",
		"not a valid "+platform+" url",
	)
}

// validatePlatformURL checks scheme and host for a platform link. An
// empty value is always valid; clearing a link is allowed.
func validatePlatformURL(platform, rawURL string) error {
	if rawURL == "" {
		return nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return invalidPlatformURL(platform)
	}

	host := strings.ToLower(parsed.Hostname())

	domains, known := platformDomains[platform]
	if !known {
		// website: any syntactically valid absolute http(s) URL
		if host == "" {
			return invalidPlatformURL(platform)
		}
		return nil
	}

	for _, domain := range domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return nil
		}
	}

	return invalidPlatformURL(platform)
}

func validateBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return ErrBioTooLong
	}
	return nil
}
