package driven

import (
	"errors"
	"fmt"
	"net/http"
)

// RemoteError is returned by adapters when a remote service answers with a
// non-2xx status. Body holds the response payload as received.
type RemoteError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, e.Body)
}

// IsUnauthorized reports whether err is a RemoteError carrying 401 or 403.
func IsUnauthorized(err error) bool {
	var remote *RemoteError
	if !errors.As(err, &remote) {
		return false
	}
	return remote.StatusCode == http.StatusUnauthorized || remote.StatusCode == http.StatusForbidden
}
