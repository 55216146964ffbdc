package status

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/spetersoncode/phantommail/llm"
	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		code     int
		expected llm.ErrorCategory
	}{
		{429, llm.ErrorTransient},
		{529, llm.ErrorTransient},
		{500, llm.ErrorTransient},
		{503, llm.ErrorTransient},
		{401, llm.ErrorPermanent},
		{403, llm.ErrorPermanent},
		{400, llm.ErrorUserInput},
		{404, llm.ErrorUserInput},
		{422, llm.ErrorUserInput},
		{409, llm.ErrorPermanent},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Categorize(tt.code), "code %d", tt.code)
	}
}

func TestRetryAfter(t *testing.T) {
	withHeader := func(v string) *http.Response {
		return &http.Response{Header: http.Header{"Retry-After": []string{v}}}
	}

	assert.Equal(t, time.Duration(0), RetryAfter(nil))
	assert.Equal(t, time.Duration(0), RetryAfter(&http.Response{Header: http.Header{}}))
	assert.Equal(t, 30*time.Second, RetryAfter(withHeader("30")))
	assert.Equal(t, time.Duration(0), RetryAfter(withHeader("soon")))

	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	d := RetryAfter(withHeader(future))
	assert.Greater(t, d, 30*time.Second)
	assert.LessOrEqual(t, d, time.Minute)
}

func TestWrap(t *testing.T) {
	cause := errors.New("upstream")

	t.Run("retry-after forces transient", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{"Retry-After": []string{"5"}}}
		err := Wrap("rate limited", 429, resp, cause)
		assert.True(t, llm.IsTransient(err))
		assert.Equal(t, 5*time.Second, err.RetryAfter())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("categorized by code", func(t *testing.T) {
		assert.True(t, llm.IsUserInput(Wrap("bad", 400, nil, cause)))
		assert.True(t, llm.IsPermanent(Wrap("auth", 401, nil, cause)))
		assert.True(t, llm.IsTransient(Wrap("down", 502, nil, cause)))
	})
}
