package populate

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/yungbote/edutaxonomy-backend/internal/domain/catalog"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/apierr"
)

func TestAPIError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("x: %w", ErrUnknownKind), http.StatusNotFound, "Unknown catalog kind"},
		{fmt.Errorf("x: %w", ErrMissingContext), http.StatusBadRequest, "Missing required contextual info"},
		{fmt.Errorf("x: %w", ErrInProgress), http.StatusTooManyRequests, "Fetch already in progress for this scope. Please try again shortly."},
		{fmt.Errorf("x: %w", ErrRateLimited), http.StatusTooManyRequests, "Too many population requests, please try again later."},
		{fmt.Errorf("x: %w", ErrUpstream), http.StatusInternalServerError, "Failed to fetch boards"},
		{apierr.New(http.StatusConflict, "conflict", nil), http.StatusConflict, "conflict"},
	}
	for _, tc := range cases {
		ae := APIError(catalog.KindBoards, tc.err)
		if ae.Status != tc.status || ae.Message != tc.msg {
			t.Fatalf("APIError(%v) = %d %q, want %d %q", tc.err, ae.Status, ae.Message, tc.status, tc.msg)
		}
		if !errors.Is(ae, tc.err) && ae.Err != nil && !errors.Is(ae.Err, tc.err) {
			t.Fatalf("APIError(%v) lost the cause", tc.err)
		}
	}
}
