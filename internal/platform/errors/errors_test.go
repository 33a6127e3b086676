package errors_test

import (
	stderrs "errors"
	"net/http"
	"testing"

	perr "ridepulse/internal/platform/errors"
)

func TestWireCodeMapping(t *testing.T) {
	cases := []struct {
		code perr.ErrorCode
		wire string
		http int
	}{
		{perr.ErrorCodeValidation, "invalid_request", http.StatusBadRequest},
		{perr.ErrorCodeJSON, "invalid_request", http.StatusBadRequest},
		{perr.ErrorCodeUnauthorized, "unauthorized", http.StatusUnauthorized},
		{perr.ErrorCodeConflict, "conflict", http.StatusConflict},
		{perr.ErrorCodeUnprocessable, "unprocessable", http.StatusUnprocessableEntity},
		{perr.ErrorCodeRateLimited, "rate_limited", http.StatusTooManyRequests},
		{perr.ErrorCodeNotFound, "not_found", http.StatusNotFound},
		{perr.ErrorCodeDB, "server_error", http.StatusInternalServerError},
		{perr.ErrorCodePanic, "server_error", http.StatusInternalServerError},
		{perr.ErrorCodeUnknown, "server_error", http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := c.code.WireCode(); got != c.wire {
			t.Fatalf("WireCode(%d) = %q, want %q", c.code, got, c.wire)
		}
		if got := perr.HTTPStatusCode(c.code); got != c.http {
			t.Fatalf("HTTPStatusCode(%d) = %d, want %d", c.code, got, c.http)
		}
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := stderrs.New("boom")
	err := perr.Wrap(cause, perr.ErrorCodeDB, "apply update")

	e, ok := perr.As(err)
	if !ok {
		t.Fatalf("expected project error")
	}
	if e.Code() != perr.ErrorCodeDB {
		t.Fatalf("code = %d", e.Code())
	}
	if !stderrs.Is(err, cause) {
		t.Fatalf("wrapped cause lost")
	}
	if perr.Root(err) != cause {
		t.Fatalf("Root should return the deepest cause")
	}
}

func TestWireFromForeignError(t *testing.T) {
	w := perr.WireFrom(stderrs.New("plain"))
	if w.Code != "server_error" || w.Message != "plain" {
		t.Fatalf("unexpected wire: %+v", w)
	}
}

func TestWithFieldCopyOnWrite(t *testing.T) {
	base := perr.Validationf("duration out of range")
	withField := perr.WithField(base, "duration_sec")

	be, _ := perr.As(base)
	fe, _ := perr.As(withField)
	if be.Field() != "" {
		t.Fatalf("base mutated")
	}
	if fe.Field() != "duration_sec" {
		t.Fatalf("field not attached: %q", fe.Field())
	}
}

func TestRetryableRespectsCancellation(t *testing.T) {
	if perr.Retryable(nil) {
		t.Fatalf("nil must not be retryable")
	}
	if perr.Retryable(stderrs.New("database is locked")) != true {
		t.Fatalf("locked text should be retryable")
	}
}
