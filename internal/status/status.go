// Package status maps HTTP failures from model providers and other remote
// collaborators onto categorized llm errors.
package status

import (
	"net/http"
	"strconv"
	"time"

	"github.com/spetersoncode/phantommail/llm"
)

// Categorize determines the error category from an HTTP status code.
func Categorize(code int) llm.ErrorCategory {
	switch {
	case code == 429 || code == 529:
		return llm.ErrorTransient
	case code >= 500 && code < 600:
		return llm.ErrorTransient
	case code == 401 || code == 403:
		return llm.ErrorPermanent
	case code == 400 || code == 404 || code == 413 || code == 422:
		return llm.ErrorUserInput
	default:
		return llm.ErrorPermanent
	}
}

// Wrap builds a categorized error for a failed response. A Retry-After
// header marks the error transient with that delay.
func Wrap(msg string, code int, resp *http.Response, cause error) *llm.Error {
	if delay := RetryAfter(resp); delay > 0 {
		return llm.NewTransientErrorWithRetry(msg, code, delay, cause)
	}
	switch Categorize(code) {
	case llm.ErrorTransient:
		return llm.NewTransientError(msg, code, cause)
	case llm.ErrorUserInput:
		return llm.NewUserInputError(msg, code, cause)
	default:
		return llm.NewPermanentError(msg, code, cause)
	}
}

// RetryAfter parses the Retry-After header as seconds or an HTTP date.
// It returns 0 when the header is absent or unparseable.
func RetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}
	return 0
}
