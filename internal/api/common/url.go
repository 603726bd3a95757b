// Package common provides shared HTTP utility functions for API handlers.
package common

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// SubscriberIDHeader carries the subscriber id set by the authenticating gateway
const SubscriberIDHeader = "X-Subscriber-ID"

// maxIDLength bounds subscriber and recipient ids
const maxIDLength = 256

// GetAndValidateURLParam extracts, decodes, and validates a URL parameter from the request.
func GetAndValidateURLParam(r *http.Request, paramName string) (string, error) {
	decoded, err := url.PathUnescape(chi.URLParam(r, paramName))
	if err != nil {
		return "", fmt.Errorf("invalid URL encoding in %s", paramName)
	}
	if err := ValidateID(paramName, decoded); err != nil {
		return "", err
	}
	return decoded, nil
}

// SubscriberID returns the validated subscriber id header of the request
func SubscriberID(r *http.Request) (string, error) {
	id := r.Header.Get(SubscriberIDHeader)
	if err := ValidateID(SubscriberIDHeader, id); err != nil {
		return "", err
	}
	return id, nil
}

// ValidateID rejects empty, oversized and whitespace-containing ids
func ValidateID(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if strings.ContainsAny(value, " \t\n\r") {
		return fmt.Errorf("%s cannot contain whitespace", name)
	}
	if len(value) > maxIDLength {
		return fmt.Errorf("%s must be at most %d characters", name, maxIDLength)
	}
	return nil
}

// GetLimitParam parses the optional limit query parameter. Zero means unset.
func GetLimitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	return limit, nil
}
