package errors

import (
	"context"
	goerrors "errors"
	"io"
	"net"
	"reflect"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Classify returns a normalized error type name suitable for tagging metrics/logs.
// It unwraps errors until the innermost concrete type is found and converts it to snake_case-ish.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	// Unwrap to the innermost error for better signal.
	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}

// IsRetryable reports whether a batch insert error is worth retrying.
// Transient connection and contention failures retry; constraint and syntax
// class errors never will, so retrying them only burns the backoff budget.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, context.Canceled) || goerrors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.DeadlockDetected,
			pgerrcode.SerializationFailure,
			pgerrcode.LockNotAvailable,
			pgerrcode.TooManyConnections,
			pgerrcode.CannotConnectNow,
			pgerrcode.AdminShutdown,
			pgerrcode.CrashShutdown:
			return true
		}
		switch {
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code),
			pgerrcode.IsOperatorIntervention(pgErr.Code):
			return true
		}
		return false
	}

	var netErr net.Error
	if goerrors.As(err, &netErr) {
		return true
	}
	if goerrors.Is(err, io.EOF) || goerrors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	return true
}
