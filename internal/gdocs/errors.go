package gdocs

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	// ErrNoCredentials indicates that no credential source is configured.
	ErrNoCredentials = errors.New("gdocs: no google credentials configured")

	// ErrNoOAuthClient indicates that the OAuth client JSON is missing.
	ErrNoOAuthClient = errors.New("gdocs: no oauth client configured")

	// ErrUnauthorized indicates invalid or expired credentials.
	ErrUnauthorized = errors.New("gdocs: unauthorised (invalid credentials)")

	// ErrForbidden indicates the credentials lack the docs or drive scope.
	ErrForbidden = errors.New("gdocs: forbidden (insufficient permissions)")

	// ErrFolderNotFound indicates the target folder does not exist or is not shared.
	ErrFolderNotFound = errors.New("gdocs: folder not found")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("gdocs: rate limit exceeded")
)

// WrapError maps Google API status codes onto the package errors.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch gerr.Code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrFolderNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return err
	}
}
