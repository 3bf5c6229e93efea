package store

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// HTTP reads ranges with Range requests. The path given to GetRange is the
// full URL.
type HTTP struct {
	client *http.Client
}

// NewHTTP returns an HTTP store. A zero timeout leaves requests bounded only
// by their context.
func NewHTTP(timeout time.Duration) *HTTP {
	return &HTTP{client: &http.Client{Timeout: timeout}}
}

// GetRange implements RangeStore.
func (s *HTTP) GetRange(ctx context.Context, url string, start, length uint64) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}
	if start > math.MaxInt64 || length > math.MaxInt64-start {
		return nil, fmt.Errorf("%w: %s: range %d+%d out of bounds", ErrShortRead, url, start, length)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, start+length-1))
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	switch resp.StatusCode {
	case http.StatusPartialContent:
		if resp.ContentLength >= 0 && uint64(resp.ContentLength) < length {
			return nil, fmt.Errorf("%w: %s: %d of %d bytes at offset %d", ErrShortRead, url, resp.ContentLength, length, start)
		}
	case http.StatusOK:
		// Range ignored, the body is the whole resource.
		if _, err := io.CopyN(io.Discard, body, int64(start)); err != nil {
			return nil, fmt.Errorf("%w: %s: skipping to %d: %v", ErrShortRead, url, start, err)
		}
	default:
		return nil, fmt.Errorf("store: GET %s bytes %d+%d: %s", url, start, length, resp.Status)
	}

	return readRange(body, length, url, start)
}
