package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusBadRequest, "bad")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	var body ErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body.Error != "bad" {
		t.Fatalf("unexpected body %s (%v)", rr.Body.String(), err)
	}
}

func TestDecodeBody(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"a":3}`))
	if _, err := DecodeBody(req, &v); err != nil || v.A != 3 {
		t.Fatalf("decode: %v %+v", err, v)
	}

	req = httptest.NewRequest("POST", "/", strings.NewReader("  "))
	raw, err := DecodeBody(req, &v)
	if err != nil || string(raw) != "{}" {
		t.Fatalf("empty body: %v %q", err, raw)
	}

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"a":`))
	if _, err := DecodeBody(req, &v); err == nil {
		t.Fatalf("expected error for malformed body")
	}

	req = httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", MaxBodyBytes+1)))
	if _, err := DecodeBody(req, &v); err == nil {
		t.Fatalf("expected error for oversized body")
	}
}
