package google

import (
	"errors"
	"fmt"

	"github.com/spetersoncode/phantommail/internal/status"
	"google.golang.org/genai"
)

// BlockedError reports a prompt rejected by Gemini's safety filters.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("content blocked: %s", e.Reason)
}

// wrapError categorizes a genai error by status code. genai.APIError does
// not expose headers, so Retry-After is never set.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var apiErrPtr *genai.APIError
		if !errors.As(err, &apiErrPtr) {
			return err
		}
		apiErr = *apiErrPtr
	}

	return status.Wrap("gemini request failed", apiErr.Code, nil, err)
}
