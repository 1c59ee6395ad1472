package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

func IsRetryableHTTPStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// IsRetryableError reports whether a failed upstream call is worth another attempt.
// Caller cancellation is never retried; deadline expiry of a single attempt is.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return IsRetryableHTTPStatus(sc.HTTPStatusCode())
	}
	return false
}

// Backoff is the wait between generator retries: exponential from Base and
// capped at Max. A server hint replaces the computed wait and is not jittered.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64

	rand func() float64
	now  func() time.Time
}

// Delay returns the wait before retry number attempt (0-based).
func (b Backoff) Delay(attempt int, resp *http.Response) time.Duration {
	if hint, ok := b.serverHint(resp); ok {
		return b.cap(hint)
	}
	d := b.Base
	for i := 0; i < attempt && (b.Max <= 0 || d < b.Max); i++ {
		d *= 2
	}
	return b.spread(b.cap(d))
}

// serverHint reads OpenAI's retry-after-ms, then Retry-After as seconds or
// an HTTP date.
func (b Backoff) serverHint(resp *http.Response) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	if ms := strings.TrimSpace(resp.Header.Get("retry-after-ms")); ms != "" {
		if v, err := strconv.ParseFloat(ms, 64); err == nil && v > 0 {
			return time.Duration(v * float64(time.Millisecond)), true
		}
	}
	ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if ra == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(ra); err == nil {
		now := time.Now
		if b.now != nil {
			now = b.now
		}
		if d := at.Sub(now()); d > 0 {
			return d, true
		}
	}
	return 0, false
}

func (b Backoff) cap(d time.Duration) time.Duration {
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

func (b Backoff) spread(d time.Duration) time.Duration {
	if d <= 0 || b.Jitter <= 0 {
		return d
	}
	r := rand.Float64
	if b.rand != nil {
		r = b.rand
	}
	f := 1 - b.Jitter + r()*2*b.Jitter
	if f < 0 {
		f = 0
	}
	return time.Duration(float64(d) * f)
}
