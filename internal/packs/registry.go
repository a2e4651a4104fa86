// ABOUTME: Thread-safe registry of tool packs and their tools.
// ABOUTME: Rejects name collisions and tools whose compiled input schema is invalid.

package packs

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrPackAlreadyRegistered indicates a pack with the same ID is already registered.
var ErrPackAlreadyRegistered = errors.New("pack already registered")

// ErrToolCollision indicates a tool name already exists.
var ErrToolCollision = errors.New("tool name collision")

// ErrInvalidSchema indicates a tool's compiled input schema is not valid JSON Schema.
var ErrInvalidSchema = errors.New("invalid input schema")

// ErrToolNotFound indicates the requested tool is not registered.
var ErrToolNotFound = errors.New("tool not found")

type entry struct {
	tool   *Tool
	packID string
}

// Registry maintains registered packs and their tools in registration order.
type Registry struct {
	mu     sync.RWMutex
	packs  map[string]*Pack
	tools  map[string]*entry
	order  []string
	logger *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		packs:  make(map[string]*Pack),
		tools:  make(map[string]*entry),
		logger: logger,
	}
}

// RegisterPack validates and stores a pack and its tools. Nothing is
// registered if any tool collides or advertises an invalid schema.
func (r *Registry) RegisterPack(pack *Pack) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.packs[pack.ID]; exists {
		return fmt.Errorf("%w: %s", ErrPackAlreadyRegistered, pack.ID)
	}

	seen := make(map[string]struct{}, len(pack.Tools))
	for _, tool := range pack.Tools {
		if existing, exists := r.tools[tool.Name]; exists {
			return fmt.Errorf("%w: tool '%s' already registered by pack '%s'",
				ErrToolCollision, tool.Name, existing.packID)
		}
		if _, dup := seen[tool.Name]; dup {
			return fmt.Errorf("%w: tool '%s' declared twice in pack '%s'",
				ErrToolCollision, tool.Name, pack.ID)
		}
		seen[tool.Name] = struct{}{}

		if err := checkInputSchema(tool); err != nil {
			return err
		}
	}

	for _, tool := range pack.Tools {
		r.tools[tool.Name] = &entry{tool: tool, packID: pack.ID}
		r.order = append(r.order, tool.Name)
	}
	r.packs[pack.ID] = pack

	r.logger.Info("=== PACK REGISTERED ===",
		"pack_id", pack.ID,
		"tool_count", len(pack.Tools),
		"total_packs", len(r.packs),
		"total_tools", len(r.tools),
	)
	return nil
}

// checkInputSchema compiles the advertised document with a JSON Schema
// compiler so malformed schemas fail at registration.
func checkInputSchema(tool *Tool) error {
	var doc any
	if err := json.Unmarshal(tool.InputSchema(), &doc); err != nil {
		return fmt.Errorf("%w: tool '%s': %v", ErrInvalidSchema, tool.Name, err)
	}

	url := "tool://" + tool.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return fmt.Errorf("%w: tool '%s': %v", ErrInvalidSchema, tool.Name, err)
	}
	if _, err := c.Compile(url); err != nil {
		return fmt.Errorf("%w: tool '%s': %v", ErrInvalidSchema, tool.Name, err)
	}
	return nil
}

// GetTool returns the tool registered under name, or nil.
func (r *Registry) GetTool(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.tools[name]; ok {
		return e.tool
	}
	return nil
}

// ListTools returns every tool in registration order.
func (r *Registry) ListTools() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name].tool)
	}
	return tools
}

// PackInfo contains public information about a registered pack.
type PackInfo struct {
	ID        string
	ToolNames []string
}

// ListPacks returns information about all registered packs, ordered by the
// registration of their first tool.
func (r *Registry) ListPacks() []PackInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index := make(map[string]int, len(r.packs))
	var infos []PackInfo
	for _, name := range r.order {
		e := r.tools[name]
		i, ok := index[e.packID]
		if !ok {
			i = len(infos)
			index[e.packID] = i
			infos = append(infos, PackInfo{ID: e.packID})
		}
		infos[i].ToolNames = append(infos[i].ToolNames, name)
	}
	return infos
}
