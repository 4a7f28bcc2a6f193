package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/mdtoc/internal/api"
	"github.com/jackzampolin/mdtoc/internal/config"
	"github.com/jackzampolin/mdtoc/internal/svcctx"
)

// ConfigResponse reports the configuration the server is running with.
type ConfigResponse struct {
	File   string         `json:"file,omitempty" yaml:"file,omitempty"`
	Config *config.Config `json:"config" yaml:"config"`
}

// ConfigEndpoint handles GET /config.
type ConfigEndpoint struct{}

var _ api.Endpoint = (*ConfigEndpoint)(nil)

func (e *ConfigEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/config", e.handler
}

func (e *ConfigEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	cm := svcctx.ConfigFrom(r.Context())
	if cm == nil {
		writeError(w, http.StatusServiceUnavailable, "config not loaded")
		return
	}
	writeJSON(w, http.StatusOK, ConfigResponse{File: cm.ConfigFileUsed(), Config: cm.Get()})
}

func (e *ConfigEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the configuration the server is running with",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ConfigResponse
			if err := client.Get(cmd.Context(), "/config", &resp); err != nil {
				return err
			}
			return api.OutputTo(cmd.OutOrStdout(), api.GetOutputFormat(), resp)
		},
	}
}
