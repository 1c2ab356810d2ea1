package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded first hop", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, remote: "10.0.0.1:443", want: "203.0.113.7"},
		{name: "fly header wins", headers: map[string]string{"Fly-Client-IP": "198.51.100.2", "X-Real-IP": "10.1.1.1"}, remote: "10.0.0.1:443", want: "198.51.100.2"},
		{name: "invalid header falls back", headers: map[string]string{"X-Real-IP": "not-an-ip"}, remote: "192.0.2.10:5555", want: "192.0.2.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := resolveClientIP(context.Background(), req); got != tt.want {
				t.Fatalf("resolveClientIP()=%q want=%q", got, tt.want)
			}
		})
	}
}
