package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrDecode is returned when a response body is not valid JSON for the target.
var ErrDecode = errors.New("error decoding content")

// StatusError is returned for any response other than 200 OK.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d (%s): %s", e.Code, http.StatusText(e.Code), e.URL)
}

// GetJSON retrieves the HTTP content and decodes it into the passed target.
func GetJSON[T any](ctx context.Context, client *http.Client, url string, target *T) error {
	if client == nil {
		return errors.New("client is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating HTTP Get request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req) //nolint:gosec // G107: URL built from configured registry base
	if err != nil {
		return fmt.Errorf("error executing HTTP Get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		PrintHTTPResponse(resp)
		return &StatusError{Code: resp.StatusCode, URL: url}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}
