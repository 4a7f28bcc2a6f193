package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Endpoint pairs an HTTP route with the CLI command that calls it, so the
// server and the api subcommands cannot drift apart.
type Endpoint interface {
	// Route returns the method, path and handler served by mdtoc serve.
	Route() (method, path string, handler http.HandlerFunc)

	// Command returns the api subcommand. serverURL is evaluated when the
	// command runs, after flags are parsed.
	Command(serverURL func() string) *cobra.Command
}

// Middleware wraps a single endpoint handler.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// Registry is an ordered set of endpoints.
type Registry struct {
	endpoints []Endpoint
}

// NewRegistry creates a registry holding eps.
func NewRegistry(eps ...Endpoint) *Registry {
	return &Registry{endpoints: eps}
}

// Register adds an endpoint.
func (r *Registry) Register(ep Endpoint) {
	r.endpoints = append(r.endpoints, ep)
}

// Len returns the number of endpoints.
func (r *Registry) Len() int { return len(r.endpoints) }

// Mount serves every endpoint on mux as a "METHOD /path" pattern. The
// first middleware is the outermost.
func (r *Registry) Mount(mux *http.ServeMux, mw ...Middleware) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		for i := len(mw) - 1; i >= 0; i-- {
			handler = mw[i](handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// Routes lists the mux patterns Mount registers.
func (r *Registry) Routes() []string {
	routes := make([]string, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		method, path, _ := ep.Route()
		routes = append(routes, method+" "+path)
	}
	return routes
}

// Command returns the api command with one subcommand per endpoint.
func (r *Registry) Command(serverURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Call a running mdtoc server",
		Long: `Subcommands send documents to a running mdtoc serve instance over HTTP
and print the response. Use --server to point at a non-default address.

Examples:
  mdtoc api health                 # Check server health
  mdtoc api format README.md       # Format a file remotely, print the result
  mdtoc api headings README.md     # List headings and their anchors`,
	}
	for _, ep := range r.endpoints {
		apiCmd.AddCommand(ep.Command(serverURL))
	}
	return apiCmd
}
