package openai

import (
	"errors"

	"github.com/openai/openai-go"
	"github.com/spetersoncode/phantommail/internal/status"
)

// wrapError categorizes an SDK error by status code and Retry-After.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return status.Wrap("openai request failed", apiErr.StatusCode, apiErr.Response, err)
}
