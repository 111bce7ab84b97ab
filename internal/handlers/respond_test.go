package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"lensfolio/api/internal/apperr"
)

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindValidation, http.StatusBadRequest},
		{apperr.KindAuth, http.StatusUnauthorized},
		{apperr.KindForbidden, http.StatusForbidden},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindConflict, http.StatusConflict},
		{apperr.KindStorage, http.StatusInternalServerError},
		{apperr.KindProcessing, http.StatusInternalServerError},
		{apperr.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusForKind(tt.kind); got != tt.want {
			t.Errorf("statusForKind(%d) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestRespondErrorHidesInternals(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	respondError(c, zerolog.Nop(), errors.New("pq: connection refused to 10.1.2.3"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body envelope
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success {
		t.Error("success true on error")
	}
	if body.Message != "something went wrong" {
		t.Errorf("message %q leaks detail", body.Message)
	}
}

func TestRespondErrorCarriesFieldErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/x", nil)

	respondError(c, zerolog.Nop(), apperr.Validation("invalid input",
		apperr.FieldError{Field: "email", Message: "invalid email address"}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var body envelope
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "invalid input" {
		t.Errorf("message = %q", body.Message)
	}
	if len(body.Errors) != 1 || body.Errors[0].Field != "email" {
		t.Errorf("errors = %+v", body.Errors)
	}
}

func TestPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", 20, 0},
		{"?page=3&perPage=10", 10, 20},
		{"?page=0&perPage=500", 20, 0}, // out of range falls back
		{"?page=abc&perPage=-1", 20, 0},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil)
		limit, offset := pagination(c)
		if limit != tt.wantLimit || offset != tt.wantOffset {
			t.Errorf("pagination(%q) = %d,%d want %d,%d", tt.query, limit, offset, tt.wantLimit, tt.wantOffset)
		}
	}
}
