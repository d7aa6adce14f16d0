package logger_test

import (
	"testing"

	pkglogger "github.com/flipline/flipline/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{"standard email", "user@example.com", "u***@*******.com"},
		{"single char user", "u@example.com", "u@*******.com"},
		{"subdomain", "user@mail.example.com", "u***@****.*******.com"},
		{"not an email", "not-an-email", "[invalid-email]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pkglogger.SanitizedEmail(tt.email))
		})
	}
}

func TestSanitizeQueryString(t *testing.T) {
	assert.True(t, pkglogger.SanitizeQueryString("token=abc123"))
	assert.True(t, pkglogger.SanitizeQueryString("email=user%40example.com"))
	assert.True(t, pkglogger.SanitizeQueryString("foo=bar&password=hunter2"))
	assert.False(t, pkglogger.SanitizeQueryString("status=SOLD&make=Honda"))
	assert.False(t, pkglogger.SanitizeQueryString(""))
}
