// Package netutil classifies transport errors met while calling the Bot API.
package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// ShouldRetry reports whether err is a transient network failure worth another attempt.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	// url.Error and net.OpError both unwrap to a net.Error for timeouts
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
