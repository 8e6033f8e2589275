package httpclient

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// networkMessage maps a low-level transport error to the user-facing
// message. The classification is by error shape first, substring second,
// mirroring how the platform distinguishes timeouts from unreachable hosts.
func networkMessage(err error) string {
	if err == nil {
		return "network error"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return "request timed out"
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return "cannot reach server"
	}

	text := err.Error()
	switch {
	case strings.Contains(text, "timeout"), strings.Contains(text, "deadline"):
		return "request timed out"
	case strings.Contains(text, "connection refused"),
		strings.Contains(text, "no such host"),
		strings.Contains(text, "EOF"):
		return "cannot reach server"
	}
	return "network error"
}
