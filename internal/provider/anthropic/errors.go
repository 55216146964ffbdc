package anthropic

import (
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spetersoncode/phantommail/internal/status"
)

// wrapError categorizes an SDK error by status code and Retry-After.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return status.Wrap("anthropic request failed", apiErr.StatusCode, apiErr.Response, err)
}
