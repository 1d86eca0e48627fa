package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"gorm.io/gorm"
)

// Failure taxonomy shared by every provider. Providers wrap their errors with one of these.
var (
	ErrRemoteUnavailable    = errors.New("remote unavailable")
	ErrRemoteRejected       = errors.New("remote rejected")
	ErrNotFound             = errors.New("not found")
	ErrConfigurationMissing = errors.New("provider not configured")
)

// ErrorKind is the machine readable name of a failure, as surfaced to API clients.
type ErrorKind string

const (
	KindRemoteUnavailable    ErrorKind = "remote_unavailable"
	KindRemoteRejected       ErrorKind = "remote_rejected"
	KindNotFound             ErrorKind = "not_found"
	KindConfigurationMissing ErrorKind = "configuration_missing"
)

// KindOf maps err onto the taxonomy. Unclassified errors count as rejections.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrConfigurationMissing):
		return KindConfigurationMissing
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrRemoteUnavailable):
		return KindRemoteUnavailable
	default:
		return KindRemoteRejected
	}
}

// IsRetryable reports whether a read that failed with err may be attempted again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable)
}

// classify wraps a raw driver/gorm error into the taxonomy, keeping the original message.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrRemoteUnavailable) || errors.Is(err, ErrRemoteRejected) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrConfigurationMissing) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w: %v", op, ErrNotFound, err)
	}
	if isUnavailable(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrRemoteUnavailable, err)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrRemoteRejected, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"connection refused", "connection reset", "broken pipe", "no such host", "database is locked", "sql: database is closed"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
