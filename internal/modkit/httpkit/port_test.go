package httpkit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ridepulse/internal/modkit/httpkit"
	perr "ridepulse/internal/platform/errors"
)

func reqWithAuthz(v string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	if v != "" {
		r.Header.Set("Authorization", v)
	}
	return r
}

func acceptToken(want string) httpkit.TokenFunc {
	return func(token string) (string, error) {
		if token != want {
			return "", perr.Unauthorizedf("bad token")
		}
		return "collector", nil
	}
}

func TestPortParsesBearerToken(t *testing.T) {
	p := httpkit.NewPortFunc(acceptToken("secret"))

	cid, err := p.Parse(reqWithAuthz("Bearer secret"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cid != "collector" {
		t.Fatalf("client id %q", cid)
	}
}

func TestPortSchemeIsCaseInsensitive(t *testing.T) {
	p := httpkit.NewPortFunc(acceptToken("secret"))

	for _, h := range []string{"bearer secret", "BEARER secret", "  Bearer   secret  "} {
		if _, err := p.Parse(reqWithAuthz(h)); err != nil {
			t.Errorf("header %q rejected: %v", h, err)
		}
	}
}

func TestPortRejectsMissingOrMalformedHeaders(t *testing.T) {
	p := httpkit.NewPortFunc(acceptToken("secret"))

	for _, h := range []string{"", "Basic dXNlcg==", "Bearer", "Bearer   "} {
		_, err := p.Parse(reqWithAuthz(h))
		if !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
			t.Errorf("header %q: expected unauthorized, got %v", h, err)
		}
	}
}

func TestPortRejectsWrongToken(t *testing.T) {
	p := httpkit.NewPortFunc(acceptToken("secret"))

	_, err := p.Parse(reqWithAuthz("Bearer wrong"))
	if !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
