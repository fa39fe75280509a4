package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

const testSecret = "test-secret-key-0123456789"

// okHandler records whether the wrapped handler was reached.
func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		setHeader  bool
		wantStatus int
		wantCalled bool
	}{
		{
			name:       "valid key",
			key:        testSecret,
			setHeader:  true,
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:       "missing header",
			setHeader:  false,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong key",
			key:        "not-the-secret",
			setHeader:  true,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty key",
			key:        "",
			setHeader:  true,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := APIKeyAuth(testSecret)(okHandler(&called))

			req := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
			if tt.setHeader {
				req.Header.Set(APIKeyHeader, tt.key)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", called, tt.wantCalled)
			}

			if tt.wantStatus == http.StatusUnauthorized {
				var apiErr APIError
				if err := json.Unmarshal(w.Body.Bytes(), &apiErr); err != nil {
					t.Fatalf("unmarshal error body: %v", err)
				}
				if apiErr.Error == "" {
					t.Error("error response has empty message")
				}
			}
		})
	}
}

func TestGlobalRateLimiter(t *testing.T) {
	called := false
	rl := NewGlobalRateLimiter(1, 2)
	handler := rl.Middleware()(okHandler(&called))

	// Burst of 2 passes, third request is limited.
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("burst-exceeding request status = %d, want 429", w.Code)
	}

	// A different client IP has its own limiter.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("fresh client status = %d, want 200", w.Code)
	}
}
