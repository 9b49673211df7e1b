// Package validation holds format checks for user-supplied identifiers.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	characterTagRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)
	colorRegex        = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	emailRegex        = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidateCharacterTag checks the tag the game runtime uses to address a character.
func ValidateCharacterTag(tag string) error {
	if !characterTagRegex.MatchString(tag) {
		return fmt.Errorf("tag must be 1-32 characters of lowercase letters, numbers, underscores, and hyphens, starting with a letter or number")
	}
	return nil
}

// ValidateColor accepts an empty value or a #rgb / #rrggbb hex color.
func ValidateColor(color string) error {
	if color == "" {
		return nil
	}
	if !colorRegex.MatchString(color) {
		return fmt.Errorf("color must be a hex value like #a1b2c3")
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateAssetURL checks that an image reference is an absolute http(s) URL.
func ValidateAssetURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return fmt.Errorf("url must be an absolute http or https URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must be an absolute http or https URL")
	}
	return nil
}
