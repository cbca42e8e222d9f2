package auth

import (
	"strings"
	"unicode"
)

// BearerExtractor pulls the credential out of an Authorization header value
// of the form "<scheme> <credential>".
type BearerExtractor struct {
	scheme string
}

// NewBearerExtractor returns an extractor accepting only scheme, compared
// case-insensitively. Conduit clients send "Token"; many others send "Bearer".
func NewBearerExtractor(scheme string) BearerExtractor {
	return BearerExtractor{scheme: scheme}
}

// Scheme returns the expected scheme.
func (e BearerExtractor) Scheme() string {
	return e.scheme
}

// Extract splits header on its first run of whitespace and returns the
// credential.
func (e BearerExtractor) Extract(header string) (string, error) {
	idx := strings.IndexFunc(header, unicode.IsSpace)
	if idx <= 0 {
		return "", ErrAuthMissing
	}

	scheme := header[:idx]
	credential := strings.TrimSpace(header[idx:])
	if credential == "" {
		return "", ErrAuthMissing
	}

	if !strings.EqualFold(scheme, e.scheme) {
		return "", ErrWrongScheme
	}

	return credential, nil
}
