// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testCSRFKey = []byte("12345678901234567890123456789012")

func TestDefaultCSRFConfig_Development(t *testing.T) {
	cfg := DefaultCSRFConfig(testCSRFKey, "http://localhost:8080", "127.0.0.1:8080", true)

	assert.Len(t, cfg.AuthKey, 32)
	assert.Equal(t, []string{"localhost:8080", "127.0.0.1:8080"}, cfg.TrustedOrigins)

	same := DefaultCSRFConfig(testCSRFKey, "http://localhost:8080", "localhost:8080", true)
	assert.Equal(t, []string{"localhost:8080"}, same.TrustedOrigins, "duplicates are dropped")
}

func TestDefaultCSRFConfig_Production(t *testing.T) {
	cfg := DefaultCSRFConfig(testCSRFKey, "https://events.example.com/", "0.0.0.0:8080", false)

	// Trusted origins are host-only values, never full URLs.
	assert.Equal(t, []string{"events.example.com"}, cfg.TrustedOrigins)
}

func TestDefaultCSRFConfig_BadPublicURL(t *testing.T) {
	cfg := DefaultCSRFConfig(testCSRFKey, "::not a url", "", false)
	assert.Empty(t, cfg.TrustedOrigins)
}

func TestCSRF(t *testing.T) {
	handler := CSRF(DefaultCSRFConfig(testCSRFKey, "http://localhost:8080", "", false))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	tests := []struct {
		name    string
		method  string
		headers map[string]string
		want    int
	}{
		{
			name:   "safe method passes",
			method: http.MethodGet,
			headers: map[string]string{
				"Sec-Fetch-Site": "cross-site",
			},
			want: http.StatusOK,
		},
		{
			name:   "same-origin post passes",
			method: http.MethodPost,
			headers: map[string]string{
				"Sec-Fetch-Site": "same-origin",
			},
			want: http.StatusOK,
		},
		{
			name:   "cross-site post rejected",
			method: http.MethodPost,
			headers: map[string]string{
				"Sec-Fetch-Site": "cross-site",
				"Origin":         "https://evil.example",
			},
			want: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/add", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCSRF_CustomErrorHandler(t *testing.T) {
	var called bool
	cfg := DefaultCSRFConfig(testCSRFKey, "", "", false)
	cfg.ErrorHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	})

	handler := CSRF(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/delete/1", nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
