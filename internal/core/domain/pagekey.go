package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// PageKeyPrefix namespaces persisted conversation keys.
const PageKeyPrefix = "chatHistory_"

// PageKey derives the conversation key of a page: origin plus path, with the
// query string and fragment stripped, so repeat visits surface the same history.
func PageKey(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("%w: empty page url", ErrInvalidInput)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: parse page url: %v", ErrInvalidInput, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: page url must be absolute: %s", ErrInvalidInput, rawURL)
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return PageKeyPrefix + Origin(u) + path, nil
}

// Origin returns scheme://host[:port] with default ports elided.
func Origin(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host = host + ":" + port
	}
	return scheme + "://" + host
}

// PageURL recovers the page address from a conversation key.
// The result has no query string or fragment.
func PageURL(key string) (string, bool) {
	if !strings.HasPrefix(key, PageKeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, PageKeyPrefix), true
}
