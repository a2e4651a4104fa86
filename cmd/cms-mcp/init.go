// ABOUTME: Interactive config file creation for cms-mcp
// ABOUTME: Prompts for server, database, site, and auth settings and writes YAML

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2389/cms-mcp/internal/auth"
)

// initAnswers holds the values collected by runInit.
type initAnswers struct {
	HTTPAddr    string
	Path        string
	DBPath      string
	SiteName    string
	SiteURL     string
	AdminEmail  string
	BearerToken string
	SafeMode    bool
	LogLevel    string
	LogFormat   string
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("cms-mcp configuration setup")
	fmt.Println("===========================")
	fmt.Println()

	outputFile := prompt(reader, "Config file path", getConfigPath())

	if _, err := os.Stat(outputFile); err == nil {
		if !yes(prompt(reader, "File exists. Overwrite?", "no")) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	var a initAnswers

	fmt.Println("\n--- Server Configuration ---")
	a.HTTPAddr = prompt(reader, "HTTP address", "localhost:8080")
	a.Path = prompt(reader, "MCP endpoint path", "/mcp")

	fmt.Println("\n--- Database Configuration ---")
	a.DBPath = prompt(reader, "SQLite database path", filepath.Join(getDataPath(), "cms.db"))

	fmt.Println("\n--- Site Configuration ---")
	a.SiteName = prompt(reader, "Site name", "My Site")
	a.SiteURL = prompt(reader, "Site URL", "http://"+a.HTTPAddr)
	a.AdminEmail = prompt(reader, "Admin email", "")

	fmt.Println("\n--- Security Configuration ---")
	if yes(prompt(reader, "Require a bearer token?", "yes")) {
		token, err := auth.GenerateToken(auth.DefaultTokenBytes)
		if err != nil {
			return fmt.Errorf("generating token: %w", err)
		}
		a.BearerToken = token
	}
	a.SafeMode = yes(prompt(reader, "Enable safe mode (block destructive tools)?", "no"))

	fmt.Println("\n--- Logging Configuration ---")
	a.LogLevel = prompt(reader, "Log level (debug/info/warn/error)", "info")
	a.LogFormat = prompt(reader, "Log format (text/json)", "text")

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// The file may hold the bearer token.
	if err := os.WriteFile(outputFile, []byte(renderConfig(a)), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(a.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	if a.BearerToken != "" {
		fmt.Println("\nClients must send this token:")
		fmt.Printf("  Authorization: Bearer %s\n", a.BearerToken)
	}
	fmt.Println("\nTo start the server:")
	fmt.Printf("  cms-mcp serve\n")

	return nil
}

// renderConfig produces the YAML config for a.
func renderConfig(a initAnswers) string {
	var cfg strings.Builder
	cfg.WriteString("# cms-mcp configuration\n")
	cfg.WriteString("# Generated by cms-mcp init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: %q\n", a.HTTPAddr))
	cfg.WriteString(fmt.Sprintf("  path: %q\n", a.Path))
	cfg.WriteString("  shutdown_timeout: \"5s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: %q\n", a.DBPath))
	cfg.WriteString("\n")

	cfg.WriteString("site:\n")
	cfg.WriteString(fmt.Sprintf("  name: %q\n", a.SiteName))
	cfg.WriteString(fmt.Sprintf("  url: %q\n", a.SiteURL))
	if a.AdminEmail != "" {
		cfg.WriteString(fmt.Sprintf("  admin_email: %q\n", a.AdminEmail))
	}
	cfg.WriteString("\n")

	if a.BearerToken != "" {
		cfg.WriteString("auth:\n")
		cfg.WriteString(fmt.Sprintf("  bearer_token: %q\n", a.BearerToken))
		cfg.WriteString("\n")
	}

	cfg.WriteString(fmt.Sprintf("safe_mode: %t\n\n", a.SafeMode))

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", a.LogLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", a.LogFormat))

	return cfg.String()
}

func yes(answer string) bool {
	answer = strings.ToLower(answer)
	return answer == "yes" || answer == "y"
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	return promptTo(os.Stdout, reader, question, defaultVal)
}

func promptTo(w io.Writer, reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(w, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(w, "%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		// On EOF or error, return default
		fmt.Fprintln(w)
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
