package request

import (
	"errors"
	"net/http"
)

// ErrInternalServer is the message returned when a handler fails unexpectedly.
var ErrInternalServer = errors.New("internal server error")

// ClientWriter is a http.ResponseWriter that remembers the status code written.
type ClientWriter struct {
	http.ResponseWriter
	statusCode int
}

// NewClientWriter wraps w. The status code defaults to 200.
func NewClientWriter(w http.ResponseWriter) *ClientWriter {
	return &ClientWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader records the status code and writes it.
func (c *ClientWriter) WriteHeader(code int) {
	c.statusCode = code
	c.ResponseWriter.WriteHeader(code)
}

// StatusCode returns the status code written.
func (c *ClientWriter) StatusCode() int {
	return c.statusCode
}
