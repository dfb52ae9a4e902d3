package gateway

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/repo-stats/internal/domain"
)

// classifyError maps go-github and transport errors onto the domain error taxonomy.
// resource names what was being fetched, for NotFoundError messages.
func classifyError(err error, resource string) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &domain.RateLimitError{Reset: rateErr.Rate.Reset.Time, Message: rateErr.Message}
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		re := &domain.RateLimitError{Message: abuseErr.Message}
		if abuseErr.RetryAfter != nil {
			re.Reset = time.Now().Add(*abuseErr.RetryAfter)
		}
		return re
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return statusError(respErr.Response.StatusCode, respErr.Message, resource)
	}
	return &domain.NetworkError{Err: err}
}

// statusError maps a non-2xx HTTP status onto the domain error taxonomy.
func statusError(code int, message, resource string) error {
	switch code {
	case http.StatusNotFound:
		return &domain.NotFoundError{Resource: resource}
	case http.StatusForbidden, http.StatusTooManyRequests:
		return &domain.RateLimitError{Message: message}
	default:
		return &domain.APIError{StatusCode: code, Message: message}
	}
}

// classifyGraphQLError maps githubv4 errors. GraphQL reports most failures in
// the response body with HTTP 200, so those are matched on their message.
func classifyGraphQLError(err error, resource string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &domain.NetworkError{Err: err}
	}
	msg := err.Error()
	switch {
	case containsAny(msg, "rate limit", "RATE_LIMITED"):
		return &domain.RateLimitError{Message: msg}
	case containsAny(msg, "Could not resolve to a Repository", "NOT_FOUND", "status code: 404"):
		return &domain.NotFoundError{Resource: resource}
	case containsAny(msg, "status code: 401", "status code: 403"):
		return &domain.RateLimitError{Message: msg}
	}
	return &domain.APIError{Message: msg}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
