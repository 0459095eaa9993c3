package middleware

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health/live", "/health/live"},
		{"/metrics", "/metrics"},
		{"/api/v1/protocolos", "/api/v1/protocolos"},
		{"/api/v1/protocolos/a1b2c3d4-e5f6-7890-abcd-ef1234567890", "/api/v1/protocolos/{id}"},
		{"/api/v1/protocolos/a1b2c3d4-e5f6-7890-abcd-ef1234567890/documentos", "/api/v1/protocolos/{id}/documentos"},
		{"/api/v1/protocolos/a1b2c3d4-e5f6-7890-abcd-ef1234567890/sitac-submit", "/api/v1/protocolos/{id}/sitac-submit"},
		{"/api/v1/documentos/a1b2c3d4-e5f6-7890-abcd-ef1234567890", "/api/v1/documentos/{id}"},
		{"/api/v1/tipos-documento", "/api/v1/tipos-documento"},
		{"/api/v1/tipos-documento/a1b2c3d4-e5f6-7890-abcd-ef1234567890", "/api/v1/tipos-documento/{id}"},
		{"/api/v1/role-overrides", "/api/v1/role-overrides"},
		{"/api/v1/role-overrides/a1b2c3d4-e5f6-7890-abcd-ef1234567890", "/api/v1/role-overrides/{userID}"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, ожидается %q", tt.path, got, tt.want)
		}
	}
}
