package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/mdtoc/internal/api"
	"github.com/jackzampolin/mdtoc/internal/format"
	"github.com/jackzampolin/mdtoc/internal/svcctx"
)

// HeadingsRequest is the request body for listing headings.
type HeadingsRequest struct {
	Markdown string `json:"markdown"`
}

// HeadingsEndpoint handles POST /headings.
type HeadingsEndpoint struct{}

var _ api.Endpoint = (*HeadingsEndpoint)(nil)

func (e *HeadingsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/headings", e.handler
}

func (e *HeadingsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeDocument[HeadingsRequest](w, r)
	if !ok {
		return
	}

	f := svcctx.FormatterFrom(r.Context())
	if f == nil {
		writeError(w, http.StatusServiceUnavailable, "formatter not initialized")
		return
	}

	outline, err := f.Outline([]byte(req.Markdown))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, outline)
}

func (e *HeadingsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "headings <file|->",
		Short: "List the headings of a document with their anchors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp format.Outline
			if err := client.Post(cmd.Context(), "/headings", HeadingsRequest{Markdown: string(src)}, &resp); err != nil {
				return err
			}
			return api.OutputTo(cmd.OutOrStdout(), api.GetOutputFormat(), resp)
		},
	}
}
