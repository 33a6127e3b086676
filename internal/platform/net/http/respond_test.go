package http_test

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	perr "ridepulse/internal/platform/errors"
	phttp "ridepulse/internal/platform/net/http"
)

func serve(t *testing.T, resp phttp.Response) (*httptest.ResponseRecorder, phttp.Envelope) {
	t.Helper()
	h := phttp.Handle(func(r *stdhttp.Request) phttp.Response { return resp })
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(stdhttp.MethodGet, "/", nil))

	var env phttp.Envelope
	if rec.Code != stdhttp.StatusNoContent {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
	}
	return rec, env
}

func TestOKWrapsDataInEnvelope(t *testing.T) {
	rec, env := serve(t, phttp.OK(map[string]int{"x": 1}))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if env.StatusCode != 200 || env.Status != "OK" {
		t.Fatalf("envelope: %+v", env)
	}
	if env.Error != "" || env.Code != "" {
		t.Fatalf("unexpected error fields: %+v", env)
	}
}

func TestErrorDerivesStatusAndCode(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{perr.Validationf("bad shape"), 400, "invalid_request"},
		{perr.Unauthorizedf("no token"), 401, "unauthorized"},
		{perr.NotFoundf("missing"), 404, "not_found"},
		{perr.Conflictf("reused key"), 409, "conflict"},
		{perr.Unprocessablef("void"), 422, "unprocessable"},
		{perr.RateLimitedf("quota"), 429, "rate_limited"},
		{perr.DBf("boom"), 500, "server_error"},
	}
	for _, tc := range cases {
		rec, env := serve(t, phttp.Error(tc.err))
		if rec.Code != tc.status {
			t.Errorf("%v: status %d, want %d", tc.err, rec.Code, tc.status)
		}
		if env.Code != tc.code {
			t.Errorf("%v: code %q, want %q", tc.err, env.Code, tc.code)
		}
	}
}

func TestWithHeadersSurviveErrorResponses(t *testing.T) {
	hdr := stdhttp.Header{}
	hdr.Set("X-RateLimit-Remaining", "0")

	rec, _ := serve(t, phttp.Error(perr.RateLimitedf("quota")).WithHeaders(hdr))
	if rec.Code != stdhttp.StatusTooManyRequests {
		t.Fatalf("status %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatal("rate header dropped")
	}
}

func TestNoContentHasEmptyBody(t *testing.T) {
	rec, _ := serve(t, phttp.NoContent())
	if rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("status %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
