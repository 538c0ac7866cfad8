package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/casetrend/internal/config"
	"github.com/soltixdb/casetrend/internal/logging"
)

// generateAPIKey generates a valid API key of specified length
func generateAPIKey(length int) string {
	key := make([]byte, length)
	for i := range key {
		key[i] = 'a' + byte(i%26)
	}
	return string(key)
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected bool
	}{
		{"exactly 32 chars", generateAPIKey(32), true},
		{"longer than 32 chars", generateAPIKey(64), true},
		{"too short", generateAPIKey(31), false},
		{"empty", "", false},
		{"32 spaces", "                                ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateAPIKey(tt.key); got != tt.expected {
				t.Errorf("ValidateAPIKey(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"abcdefghijklmnop", "abcd****"},
		{"abcd", "****"},
		{"", "****"},
	}

	for _, tt := range tests {
		if got := maskAPIKey(tt.key); got != tt.expected {
			t.Errorf("maskAPIKey(%q) = %q, want %q", tt.key, got, tt.expected)
		}
	}
}

func newAuthApp(cfg config.AuthConfig) *fiber.App {
	app := fiber.New()
	app.Use(APIKeyAuth(logging.NewNop(), cfg))
	app.Post("/admin/refresh", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	return app
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	app := newAuthApp(config.AuthConfig{Enabled: false})

	resp, err := app.Test(httptest.NewRequest("POST", "/admin/refresh", nil))
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestAPIKeyAuth_Enabled(t *testing.T) {
	validKey := generateAPIKey(32)
	app := newAuthApp(config.AuthConfig{Enabled: true, APIKeys: []string{validKey, "short"}})

	tests := []struct {
		name       string
		headerName string
		headerVal  string
		wantStatus int
	}{
		{"X-API-Key header", "X-API-Key", validKey, fiber.StatusOK},
		{"Authorization Bearer header", "Authorization", "Bearer " + validKey, fiber.StatusOK},
		{"Authorization plain header", "Authorization", validKey, fiber.StatusOK},
		{"missing key", "", "", fiber.StatusUnauthorized},
		{"wrong key", "X-API-Key", generateAPIKey(40), fiber.StatusUnauthorized},
		{"key rejected at startup", "X-API-Key", "short", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/admin/refresh", nil)
			if tt.headerName != "" {
				req.Header.Set(tt.headerName, tt.headerVal)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Failed to test request: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				body, _ := io.ReadAll(resp.Body)
				t.Errorf("Expected status %d, got %d, body: %s", tt.wantStatus, resp.StatusCode, string(body))
			}
		})
	}
}
