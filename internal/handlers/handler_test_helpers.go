package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/apollorio/rede/internal/models"
)

func assertErrorResponse(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rr.Code, rr.Body.String())
	}
	if ct := rr.Result().Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected content type application/json, got %q", ct)
	}

	var response ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Error == "" {
		t.Fatal("expected an error message")
	}
}

// authedRequest builds a request with an actor in context and optional path
// values set.
func authedRequest(method, target string, body io.Reader, actor *models.Actor, pathValues map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if actor != nil {
		req = req.WithContext(SetActorInContext(req.Context(), actor))
	}
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	return req
}
