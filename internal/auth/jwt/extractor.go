package jwt

import (
	"net/http"
	"strings"
)

// TokenExtractor extracts a raw token from a request.
type TokenExtractor interface {
	Extract(r *http.Request) (string, error)
}

// HeaderExtractor extracts tokens from a header carrying "<prefix><token>".
type HeaderExtractor struct {
	header string
	prefix string
}

// NewHeaderExtractor creates a header extractor. Empty arguments default to
// the Authorization header and the "Bearer " prefix.
func NewHeaderExtractor(header, prefix string) *HeaderExtractor {
	if header == "" {
		header = "Authorization"
	}
	if prefix == "" {
		prefix = "Bearer "
	}
	return &HeaderExtractor{header: header, prefix: prefix}
}

// BearerExtractor returns the Authorization: Bearer extractor.
func BearerExtractor() *HeaderExtractor {
	return NewHeaderExtractor("", "")
}

// Extract returns the token. The prefix is matched case-insensitively and a
// header with a scheme but no token part is rejected.
func (e *HeaderExtractor) Extract(r *http.Request) (string, error) {
	value := r.Header.Get(e.header)
	if value == "" {
		return "", ErrMissingHeader
	}
	if len(value) < len(e.prefix) || !strings.EqualFold(value[:len(e.prefix)], e.prefix) {
		return "", ErrInvalidPrefix
	}
	token := strings.TrimSpace(value[len(e.prefix):])
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}
