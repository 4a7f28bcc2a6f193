// Package format applies the table of contents pass to markdown text, files
// and directory trees.
package format

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/jackzampolin/mdtoc/internal/markdown"
	"github.com/jackzampolin/mdtoc/internal/toc"
)

// StdinPath is the path argument that selects standard input.
const StdinPath = "-"

// Config holds formatter configuration.
type Config struct {
	// PermalinkSymbol is the visible text inside injected heading anchors.
	PermalinkSymbol string
	// Extensions are the file suffixes picked up when walking directories
	// (default: .md, .markdown)
	Extensions []string
	// Exclude lists directory names skipped when walking directories.
	Exclude []string
	// ReadAttempts bounds retries of file reads (default: 3)
	ReadAttempts uint
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// Formatter formats markdown documents. It is safe for concurrent use; each
// document gets its own pass.
type Formatter struct {
	cfg    Config
	logger *slog.Logger
}

// Result reports the outcome of formatting one file.
type Result struct {
	Path    string `json:"path" yaml:"path"`
	Changed bool   `json:"changed" yaml:"changed"`
}

// New creates a Formatter.
func New(cfg Config) *Formatter {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".md", ".markdown"}
	}
	if cfg.ReadAttempts == 0 {
		cfg.ReadAttempts = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Formatter{cfg: cfg, logger: cfg.Logger}
}

// Text formats a single document.
func (f *Formatter) Text(src []byte) (string, error) {
	return f.text(src, f.logger)
}

func (f *Formatter) text(src []byte, logger *slog.Logger) (string, error) {
	pass := toc.NewPass(toc.Config{
		PermalinkSymbol: f.cfg.PermalinkSymbol,
		Logger:          logger,
	})
	return markdown.Format(src, pass)
}

// Stream formats r and writes the result to w. In check mode nothing is
// written. It reports whether formatting changed the document.
func (f *Formatter) Stream(r io.Reader, w io.Writer, check bool) (bool, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return false, fmt.Errorf("failed to read input: %w", err)
	}
	out, err := f.Text(src)
	if err != nil {
		return false, err
	}
	changed := out != string(src)
	if check {
		return changed, nil
	}
	if _, err := io.WriteString(w, out); err != nil {
		return changed, fmt.Errorf("failed to write output: %w", err)
	}
	return changed, nil
}

// File formats the file at path in place. In check mode the file is left
// untouched and the result only reports whether it would change.
func (f *Formatter) File(ctx context.Context, path string, check bool) (Result, error) {
	return f.file(ctx, path, check, f.logger)
}

func (f *Formatter) file(ctx context.Context, path string, check bool, logger *slog.Logger) (Result, error) {
	res := Result{Path: path}

	src, err := f.read(ctx, path)
	if err != nil {
		return res, err
	}
	out, err := f.text(src, logger.With("path", path))
	if err != nil {
		return res, fmt.Errorf("failed to format %s: %w", path, err)
	}
	res.Changed = out != string(src)
	if !res.Changed || check {
		return res, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return res, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
		return res, fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.Info("formatted file", "path", path)
	return res, nil
}

// read retries transient failures, such as an editor replacing the file
// while it is being read.
func (f *Formatter) read(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := retry.Do(
		func() error {
			var err error
			data, err = os.ReadFile(path)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(f.cfg.ReadAttempts),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Paths formats every markdown file under paths. Directories are walked
// recursively. A failing file does not stop the others; all failures are
// returned joined.
func (f *Formatter) Paths(ctx context.Context, paths []string, check bool) ([]Result, error) {
	logger := f.logger.With("run_id", uuid.NewString())

	files, err := f.Expand(paths)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(files))
	var errs []error
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := f.file(ctx, path, check, logger)
		if err != nil {
			logger.Error("failed to format file", "path", path, "error", err)
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}

	changed := 0
	for _, res := range results {
		if res.Changed {
			changed++
		}
	}
	logger.Debug("format run complete",
		"files", len(files),
		"changed", changed,
		"failed", len(errs),
		"check", check)

	return results, errors.Join(errs...)
}
