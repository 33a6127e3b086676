package bind_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "ridepulse/internal/platform/errors"
	"ridepulse/internal/platform/net/http/bind"
)

type payload struct {
	Name  string  `json:"name" validate:"required,min=1,max=8"`
	Score float64 `json:"score" validate:"gte=0,lte=1"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestParseJSONDecodesAndValidates(t *testing.T) {
	got, err := bind.ParseJSON[payload](post(`{"name": "seg", "score": 0.5}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Name != "seg" || got.Score != 0.5 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestParseJSONRejectsUnknownFields(t *testing.T) {
	_, err := bind.ParseJSON[payload](post(`{"name": "seg", "extra": true}`))
	if !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("expected JSON error, got %v", err)
	}
}

func TestParseJSONRejectsEmptyBodyOnPost(t *testing.T) {
	_, err := bind.ParseJSON[payload](post(""))
	if !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("expected JSON error, got %v", err)
	}
}

func TestParseJSONToleratesEmptyBodyOnGet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", strings.NewReader(""))
	got, err := bind.ParseJSON[payload](req)
	if err != nil {
		t.Fatalf("expected zero value on empty GET, got %v", err)
	}
	if got != (payload{}) {
		t.Fatalf("expected zero payload, got %+v", got)
	}
}

func TestParseJSONValidationCarriesField(t *testing.T) {
	_, err := bind.ParseJSON[payload](post(`{"name": "", "score": 0.5}`))
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	e, ok := perr.As(err)
	if !ok {
		t.Fatalf("expected project error, got %T", err)
	}
	if e.Field() != "name" {
		t.Fatalf("expected field name, got %q", e.Field())
	}

	_, err = bind.ParseJSON[payload](post(`{"name": "seg", "score": 1.5}`))
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("expected range validation error, got %v", err)
	}
}

func TestParseJSONRejectsTrailingData(t *testing.T) {
	_, err := bind.ParseJSON[payload](post(`{"name": "seg"} {"name": "again"}`))
	if !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("expected JSON error, got %v", err)
	}
}
