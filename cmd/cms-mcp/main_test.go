// ABOUTME: Tests for cms-mcp command helpers
// ABOUTME: Covers token generation, config rendering, tool listing, and log formatting

package main

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/cms-mcp/internal/auth"
	"github.com/2389/cms-mcp/internal/config"
)

func init() {
	color.NoColor = true
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CMS_MCP_CONFIG", "/etc/cms-mcp.yaml")
	assert.Equal(t, "/etc/cms-mcp.yaml", getConfigPath())

	t.Setenv("CMS_MCP_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "cms-mcp", "config.yaml"), getConfigPath())
}

func TestRunToken(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		bytes   int
		wantErr string
	}{
		{name: "default", args: nil, bytes: auth.DefaultTokenBytes},
		{name: "separate value", args: []string{"--length", "48"}, bytes: 48},
		{name: "equals form", args: []string{"--length=16"}, bytes: 16},
		{name: "short flag", args: []string{"-l", "64"}, bytes: 64},
		{name: "missing value", args: []string{"--length"}, wantErr: "--length requires a value"},
		{name: "not a number", args: []string{"--length=big"}, wantErr: `invalid length "big"`},
		{name: "too short", args: []string{"--length=8"}, wantErr: "at least 16 bytes"},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: "unknown flag: --bogus"},
		{name: "stray argument", args: []string{"extra"}, wantErr: "unexpected argument: extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runToken(&out, tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			token := strings.TrimSpace(out.String())
			raw, err := base64.RawStdEncoding.DecodeString(token)
			require.NoError(t, err)
			assert.Len(t, raw, tt.bytes)
		})
	}
}

func TestRenderConfig(t *testing.T) {
	rendered := renderConfig(initAnswers{
		HTTPAddr:    "0.0.0.0:9000",
		Path:        "/rpc",
		DBPath:      "/var/lib/cms-mcp/cms.db",
		SiteName:    `The "Quoted" Site`,
		SiteURL:     "https://example.com",
		AdminEmail:  "admin@example.com",
		BearerToken: "secret-token",
		SafeMode:    true,
		LogLevel:    "debug",
		LogFormat:   "json",
	})

	cfg, err := config.Parse([]byte(rendered), config.FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.HTTPAddr)
	assert.Equal(t, "/rpc", cfg.Server.Path)
	assert.Equal(t, "/var/lib/cms-mcp/cms.db", cfg.Database.Path)
	assert.Equal(t, `The "Quoted" Site`, cfg.Site.Name)
	assert.Equal(t, "admin@example.com", cfg.Site.AdminEmail)
	assert.Equal(t, "secret-token", cfg.Auth.BearerToken)
	assert.True(t, cfg.SafeMode)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestRenderConfig_NoToken(t *testing.T) {
	rendered := renderConfig(initAnswers{
		HTTPAddr:  "localhost:8080",
		Path:      "/mcp",
		DBPath:    "cms.db",
		SiteName:  "My Site",
		SiteURL:   "http://localhost:8080",
		LogLevel:  "info",
		LogFormat: "text",
	})

	assert.NotContains(t, rendered, "auth:")
	assert.NotContains(t, rendered, "admin_email")

	cfg, err := config.Parse([]byte(rendered), config.FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, cfg.Auth.BearerToken)
	assert.False(t, cfg.SafeMode)
}

func TestPrompt(t *testing.T) {
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader("custom\n\n"))

	assert.Equal(t, "custom", promptTo(&out, reader, "Name", "default"))
	assert.Equal(t, "default", promptTo(&out, reader, "Name", "default"))
	assert.Equal(t, "fallback", promptTo(&out, reader, "Name", "fallback"), "EOF returns the default")
	assert.Contains(t, out.String(), "Name [default]: ")
}

func TestRunTools(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runTools(t.Context(), &out))

	text := out.String()
	for _, name := range []string{"create_content", "delete_content", "list_terms", "assign_terms_to_content"} {
		assert.Contains(t, text, "  "+name)
	}
	assert.Contains(t, text, "delete_content [destructive]")
	assert.Contains(t, text, `"type": "object"`)
}

func TestColorHandler(t *testing.T) {
	var out bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "warn", Format: "text"}, &out)

	logger.Info("hidden")
	logger.With("component", "store").WithGroup("req").Warn("slow query", "ms", 250)

	line := out.String()
	assert.NotContains(t, line, "hidden")
	assert.Contains(t, line, "WRN slow query")
	assert.Contains(t, line, " component=store")
	assert.Contains(t, line, " req.ms=250")
}

func TestSetupLogger_JSON(t *testing.T) {
	var out bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "debug", Format: "json"}, &out)

	logger.Debug("tool invoked", "tool", "get_content")
	assert.Contains(t, out.String(), `"msg":"tool invoked"`)
	assert.Contains(t, out.String(), `"level":"DEBUG"`)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))
}
