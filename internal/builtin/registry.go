// Package builtin provides the MCP servers bundled with tokencount.
package builtin

import (
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mark3labs/tokencount/internal/counter"
)

// BuiltinServerWrapper wraps an MCP server for builtin use, providing a
// consistent interface for all builtin servers regardless of their
// implementation.
type BuiltinServerWrapper struct {
	server *server.MCPServer
}

// GetServer returns the wrapped MCP server instance.
func (w *BuiltinServerWrapper) GetServer() *server.MCPServer {
	return w.server
}

// Factory creates a builtin server backed by a counter.
type Factory func(c *counter.Counter, version string) (*BuiltinServerWrapper, error)

// Registry holds all available builtin servers and their factory functions.
type Registry struct {
	servers map[string]Factory
}

// NewRegistry creates a registry with all builtin servers registered.
func NewRegistry() *Registry {
	r := &Registry{
		servers: make(map[string]Factory),
	}

	r.registerTokenCountServer()

	return r
}

// CreateServer creates a new instance of a builtin server by name. Returns an
// error if the server name is unknown.
func (r *Registry) CreateServer(name string, c *counter.Counter, version string) (*BuiltinServerWrapper, error) {
	factory, exists := r.servers[name]
	if !exists {
		return nil, fmt.Errorf("unknown builtin server: %s", name)
	}

	return factory(c, version)
}

// ListServers returns the names of all builtin servers in sorted order.
func (r *Registry) ListServers() []string {
	names := make([]string, 0, len(r.servers))
	for name := range r.servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// registerTokenCountServer registers the token counting server
func (r *Registry) registerTokenCountServer() {
	r.servers[TokenCountServerName] = func(c *counter.Counter, version string) (*BuiltinServerWrapper, error) {
		if c == nil {
			return nil, fmt.Errorf("token count server requires a counter")
		}
		return &BuiltinServerWrapper{server: NewTokenCountServer(c, version)}, nil
	}
}
