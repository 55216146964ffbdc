package retry

import (
	"context"
	"errors"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	"github.com/spetersoncode/phantommail/llm"
)

// statusCoder is implemented by the Anthropic and OpenAI SDK errors.
type statusCoder interface {
	StatusCode() int
}

// httpStatusCoder is implemented by AWS SDK response errors.
type httpStatusCoder interface {
	HTTPStatusCode() int
}

// IsTransient reports whether err should be retried. Categorized errors are
// trusted as-is; anything else is classified by status code, network error
// type, SMTP reply code, and finally by message.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var ce llm.CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == llm.ErrorTransient
	}

	var sc statusCoder
	if errors.As(err, &sc) && isTransientStatusCode(sc.StatusCode()) {
		return true
	}
	var hc httpStatusCoder
	if errors.As(err, &hc) && isTransientStatusCode(hc.HTTPStatusCode()) {
		return true
	}
	if code := googleAPIErrorCode(err); code > 0 && isTransientStatusCode(code) {
		return true
	}
	if isTransientSMTPReply(err) {
		return true
	}
	return isTransientNetworkError(err)
}

func isTransientStatusCode(code int) bool {
	return code == 429 || (code >= 500 && code < 600)
}

var googleAPIErrorPattern = regexp.MustCompile(`googleapi: Error (\d{3})`)

// googleAPIErrorCode extracts the status from "googleapi: Error 503: ..." messages.
func googleAPIErrorCode(err error) int {
	m := googleAPIErrorPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

var smtpReplyPattern = regexp.MustCompile(`\b(421|45[0-2])[ -]`)

// isTransientSMTPReply matches 4xx SMTP replies (421, 450, 451, 452), which
// mail servers use for temporary failures.
func isTransientSMTPReply(err error) bool {
	return smtpReplyPattern.MatchString(err.Error())
}

var transientPatterns = []string{
	"connection reset",
	"connection refused",
	"timeout",
	"temporary failure",
	"service unavailable",
	"too many requests",
	"rate limit",
	"server error",
	"bad gateway",
	"gateway timeout",
}

func isTransientNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && isTransientNetworkError(urlErr.Err) {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ETIMEDOUT:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
