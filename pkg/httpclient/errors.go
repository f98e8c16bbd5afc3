package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/lifestyle/storefront/pkg/errors"
)

// maxErrorBody bounds how much of a failed response is read for diagnostics.
const maxErrorBody = 8 << 10

// upstreamError is the {"error":{"code","message"}} body the product API and
// this service both use. Some upstreams send a bare {"message"} instead.
type upstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// ParseResponseError consumes and closes a non-2xx response and turns it into
// an error. 404 wraps apperrors.ErrNotFound and 429/503 ServiceUnavailable;
// every other status is a plain error naming the upstream and status.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", upstream, resp.StatusCode, err)
	}

	code, message := describe(raw)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: fmt.Sprintf("%s: %s", upstream, message),
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(fmt.Sprintf("%s: %s", upstream, message), nil)
	}

	if code != "" {
		return fmt.Errorf("%s returned status %d (%s): %s", upstream, resp.StatusCode, code, message)
	}
	return fmt.Errorf("%s returned status %d: %s", upstream, resp.StatusCode, message)
}

// describe extracts a code and message from an error body, falling back to the
// trimmed raw text.
func describe(raw []byte) (code, message string) {
	var body upstreamError
	if json.Unmarshal(raw, &body) == nil {
		if body.Error != nil && body.Error.Message != "" {
			return body.Error.Code, body.Error.Message
		}
		if body.Message != "" {
			return "", body.Message
		}
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		text = "empty response body"
	}
	return "", text
}
