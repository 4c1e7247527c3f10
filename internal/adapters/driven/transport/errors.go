package transport

import (
	"errors"
	"net/url"
)

// unwrapURLError drops the *url.Error wrapper so request URLs, which may
// carry an API key in the query, never reach logs or users.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
