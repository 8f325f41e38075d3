package domain

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxRequestSize bounds the human request, in bytes.
const DefaultMaxRequestSize = 4096

// EnvMaxRequestSize overrides DefaultMaxRequestSize.
const EnvMaxRequestSize = "SCOUT_MAX_REQUEST_SIZE"

// SanitizeRequest rejects oversized or invalid UTF-8 requests and strips
// control characters other than newline, tab and carriage return, so a
// request cannot smuggle terminal escapes into logs or prompts.
func SanitizeRequest(input string) (string, error) {
	if limit := MaxRequestSize(); len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrRequestTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(input, unsafeControl) < 0 {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

// MaxRequestSize reads EnvMaxRequestSize, falling back to the default.
func MaxRequestSize() int {
	if val := os.Getenv(EnvMaxRequestSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxRequestSize
}
