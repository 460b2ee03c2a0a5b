package openaicompat

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/parleyhq/parley/pkg/provider"
)

// MapHTTPError converts an HTTP response with a non-2xx status code into a
// provider.Error. Rate limiting and server-side failures are transient;
// client-side failures (bad request, auth, not found) are not.
func MapHTTPError(resp *http.Response) *provider.Error {
	message := ExtractErrorMessage(resp.Body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if message == "" {
			message = "backend rate limit exceeded"
		}
		return provider.NewTransientError(resp.StatusCode, message)

	case resp.StatusCode >= http.StatusInternalServerError:
		if message == "" {
			message = fmt.Sprintf("backend server error (HTTP %d)", resp.StatusCode)
		}
		return provider.NewTransientError(resp.StatusCode, message)

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if message == "" {
			message = "backend authentication failed"
		}
		return provider.NewNonRetryableError(resp.StatusCode, message)

	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		if message == "" {
			message = fmt.Sprintf("backend rejected the request (HTTP %d)", resp.StatusCode)
		}
		return provider.NewNonRetryableError(resp.StatusCode, message)

	default:
		if message == "" {
			message = fmt.Sprintf("unexpected backend error (HTTP %d)", resp.StatusCode)
		}
		return provider.NewTransientError(resp.StatusCode, message)
	}
}

// MapNetworkError converts a network-level error (connection refused,
// timeout, DNS resolution failure) into a transient provider.Error.
func MapNetworkError(err error) *provider.Error {
	return provider.NewTransientError(0, fmt.Sprintf("backend connection error: %s", err.Error()))
}

// ExtractErrorMessage tries to parse the response body as a ChatErrorResponse
// and returns the error message if found.
func ExtractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var errResp ChatErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}

	return ""
}
