package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yanizio/depl/internal/apperr"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestErrorEnvelope(t *testing.T) {
	SetExposeDetails(true)
	defer SetExposeDetails(false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/deeplink", nil)
	Error(rec, req, apperr.CreationFailed.Wrap(errors.New("connection refused")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decodeEnvelope(t, rec)
	if got.Code != "DEEPLINK_CREATION_FAILED" || got.Details != "connection refused" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestErrorHidesDetailsInProduction(t *testing.T) {
	SetExposeDetails(false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/deeplink", nil)
	Error(rec, req, errors.New("dial tcp 10.0.0.5:3306: i/o timeout"))

	got := decodeEnvelope(t, rec)
	if got.Code != "SERVER_ERROR" || got.Details != "" {
		t.Fatalf("payload = %+v", got)
	}
	if rec.Header().Get("Content-Type") != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", rec.Header().Get("Content-Type"))
	}
}
