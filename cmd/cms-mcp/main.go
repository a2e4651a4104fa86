// ABOUTME: Entry point for the cms-mcp server
// ABOUTME: Serves CMS content tools to MCP clients over HTTP or stdio

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/cms-mcp/internal/auth"
	"github.com/2389/cms-mcp/internal/cms"
	"github.com/2389/cms-mcp/internal/config"
	"github.com/2389/cms-mcp/internal/gateway"
	"github.com/2389/cms-mcp/internal/packs"
	"github.com/2389/cms-mcp/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                                                 
  ___ _ __ ___  ___       _ __ ___   ___ _ __  
 / __| '_ ' _ \/ __|_____| '_ ' _ \ / __| '_ \ 
| (__| | | | | \__ \_____| | | | | | (__| |_) |
 \___|_| |_| |_|___/     |_| |_| |_|\___| .__/ 
                                        |_|    
`

// getConfigPath returns the path to the config file.
// Priority: CMS_MCP_CONFIG env var > XDG_CONFIG_HOME/cms-mcp/config.yaml > ~/.config/cms-mcp/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("CMS_MCP_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "cms-mcp", "config.yaml")
}

// getDataPath returns the path to the cms-mcp data directory.
// Priority: XDG_DATA_HOME/cms-mcp > ~/.local/share/cms-mcp
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "cms-mcp")
}

func usage() {
	fmt.Println("Usage: cms-mcp <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                Start the MCP server over HTTP")
	fmt.Println("  stdio                Serve MCP over stdin/stdout")
	fmt.Println("  init                 Create a new config file interactively")
	fmt.Println("  token [--length N]   Generate a random bearer token")
	fmt.Println("  tools                List available tools and their input schemas")
	fmt.Println("  health               Check server health")
	fmt.Println("  version              Print the version")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "stdio":
		err = runStdio(ctx)
	case "init":
		err = runInit()
	case "token":
		err = runToken(os.Stdout, os.Args[2:])
	case "tools":
		err = runTools(ctx, os.Stdout)
	case "health":
		err = runHealth(ctx)
	case "version":
		fmt.Println(version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging, os.Stdout)

	// Startup info
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s%s\n", cfg.Server.HTTPAddr, cfg.Server.Path)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Auth:      ")
	if cfg.Auth.BearerToken != "" {
		fmt.Println("bearer token")
	} else {
		yellow.Println("disabled")
	}
	if cfg.SafeMode {
		green.Print("    ▶ ")
		fmt.Printf("Safe mode: ")
		yellow.Println("on")
	}

	fmt.Println()

	logger.Info("starting cms-mcp",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"path", cfg.Server.Path,
	)

	gateway.Version = version
	gw, err := gateway.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

// runStdio serves MCP on stdin/stdout. Stdout carries protocol frames only,
// so logs go to stderr and no banner is printed.
func runStdio(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging, os.Stderr)

	gateway.Version = version
	gw, err := gateway.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	logger.Info("serving MCP on stdio")
	return gw.ServeStdio(ctx, os.Stdin, os.Stdout)
}

// runToken prints a fresh bearer token suitable for auth.bearer_token.
// Supports both "--length N" and "--length=N" formats.
func runToken(out io.Writer, args []string) error {
	length := auth.DefaultTokenBytes
	for i := 0; i < len(args); i++ {
		arg := args[i]
		var raw string
		switch {
		case arg == "--length" || arg == "-l":
			if i+1 >= len(args) {
				return fmt.Errorf("--length requires a value")
			}
			raw = args[i+1]
			i++
		case strings.HasPrefix(arg, "--length="):
			raw = strings.TrimPrefix(arg, "--length=")
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			return fmt.Errorf("unexpected argument: %s", arg)
		}

		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid length %q", raw)
		}
		length = n
	}

	token, err := auth.GenerateToken(length)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

// runTools prints every registered tool with its advertised input schema.
// The tools are loaded against an in-memory store, so no config is needed.
func runTools(ctx context.Context, out io.Writer) error {
	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	registry := packs.NewRegistry(slog.New(slog.DiscardHandler))
	if err := cms.Register(registry, st, cms.Site{}); err != nil {
		return fmt.Errorf("registering tool packs: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	for _, info := range registry.ListPacks() {
		bold.Fprintf(out, "%s\n", info.ID)
		for _, name := range info.ToolNames {
			tool := registry.GetTool(name)
			fmt.Fprintf(out, "  %s", tool.Name)
			if tool.Destructive {
				red.Fprint(out, " [destructive]")
			}
			fmt.Fprintf(out, "\n    %s\n", tool.Description)

			var schema any
			if err := json.Unmarshal(tool.InputSchema(), &schema); err != nil {
				return fmt.Errorf("decoding schema for %s: %w", tool.Name, err)
			}
			pretty, err := json.MarshalIndent(schema, "    ", "  ")
			if err != nil {
				return fmt.Errorf("encoding schema for %s: %w", tool.Name, err)
			}
			fmt.Fprintf(out, "    %s\n\n", pretty)
		}
	}
	return nil
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Make HTTP request to ready endpoint with context
	url := fmt.Sprintf("http://%s/health/ready", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d: %s", resp.StatusCode, body)
	}

	fmt.Printf("healthy: %s\n", body)
	return nil
}
