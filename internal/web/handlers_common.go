package web

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
)

// maxPageSize caps the limit query parameter.
const maxPageSize = 1000

// pageParams reads limit and offset from the query string. A missing or zero
// limit yields defaultLimit; the result never exceeds maxPageSize.
func pageParams(r *http.Request, defaultLimit int) (limit, offset int, err error) {
	limit, err = intParam(r, "limit", defaultLimit)
	if err != nil {
		return 0, 0, err
	}
	offset, err = intParam(r, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	if limit == 0 {
		limit = defaultLimit
	}
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, offset, nil
}

// intParam parses a non-negative integer query parameter.
func intParam(r *http.Request, name string, defaultVal int) (int, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, val)
	}
	return i, nil
}

// statusOrBadRequest maps an upload read error: an oversized body is 413,
// anything else is the client's fault.
func statusOrBadRequest(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// clientIP returns the request's remote address without its port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
