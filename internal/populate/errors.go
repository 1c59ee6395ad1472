package populate

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/edutaxonomy-backend/internal/domain/catalog"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/apierr"
)

var (
	ErrUnknownKind    = errors.New("unknown catalog kind")
	ErrMissingContext = errors.New("missing required contextual info")
	ErrInProgress     = errors.New("population already in progress for scope")
	ErrRateLimited    = errors.New("too many population requests")
	ErrUpstream       = errors.New("generator failed")
)

// APIError maps a population failure to the status and message clients see.
func APIError(kind catalog.Kind, err error) *apierr.Error {
	switch {
	case errors.Is(err, ErrUnknownKind):
		return apierr.New(http.StatusNotFound, "Unknown catalog kind", err)
	case errors.Is(err, ErrMissingContext):
		return apierr.New(http.StatusBadRequest, "Missing required contextual info", err)
	case errors.Is(err, ErrInProgress):
		return apierr.New(http.StatusTooManyRequests, "Fetch already in progress for this scope. Please try again shortly.", err)
	case errors.Is(err, ErrRateLimited):
		return apierr.New(http.StatusTooManyRequests, "Too many population requests, please try again later.", err)
	default:
		return apierr.From(err, fmt.Sprintf("Failed to fetch %s", kind))
	}
}
