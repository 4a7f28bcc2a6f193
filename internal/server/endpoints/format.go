package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/mdtoc/internal/api"
	"github.com/jackzampolin/mdtoc/internal/format"
	"github.com/jackzampolin/mdtoc/internal/svcctx"
)

// FormatRequest is the request body for formatting a document.
type FormatRequest struct {
	Markdown string `json:"markdown"`
}

// FormatResponse is the formatted document.
type FormatResponse struct {
	Markdown string `json:"markdown" yaml:"markdown"`
	Changed  bool   `json:"changed" yaml:"changed"`
}

// FormatEndpoint handles POST /format.
type FormatEndpoint struct{}

var _ api.Endpoint = (*FormatEndpoint)(nil)

func (e *FormatEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/format", e.handler
}

func (e *FormatEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeDocument[FormatRequest](w, r)
	if !ok {
		return
	}

	f := svcctx.FormatterFrom(r.Context())
	if f == nil {
		writeError(w, http.StatusServiceUnavailable, "formatter not initialized")
		return
	}

	out, err := f.Text([]byte(req.Markdown))
	if err != nil {
		svcctx.LoggerFrom(r.Context()).Error("format failed", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, FormatResponse{Markdown: out, Changed: out != req.Markdown})
}

func (e *FormatEndpoint) Command(getServerURL func() string) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "format <file|->",
		Short: "Format a document on the server",
		Long: `Send a document to the server and print the formatted result.

Use "-" to read from stdin. With --write the file is updated in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if write && path == format.StdinPath {
				return fmt.Errorf("--write cannot be used with stdin")
			}
			src, err := readDocument(cmd, path)
			if err != nil {
				return err
			}

			client := api.NewClient(getServerURL())
			var resp FormatResponse
			if err := client.Post(cmd.Context(), "/format", FormatRequest{Markdown: string(src)}, &resp); err != nil {
				return err
			}

			if !write {
				_, err := io.WriteString(cmd.OutOrStdout(), resp.Markdown)
				return err
			}
			if !resp.Changed {
				return nil
			}
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", path, err)
			}
			return os.WriteFile(path, []byte(resp.Markdown), info.Mode().Perm())
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the file")
	return cmd
}

// decodeDocument reads a JSON request body of at most MaxBodyBytes. It
// writes the error response itself and reports whether decoding succeeded.
func decodeDocument[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return req, false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	return req, true
}

// readDocument reads path, or stdin for "-".
func readDocument(cmd *cobra.Command, path string) ([]byte, error) {
	if path == format.StdinPath {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return src, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return src, nil
}
