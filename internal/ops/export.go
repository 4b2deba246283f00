package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/highlight"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path   string `json:"path,omitempty"`   // default: ~/.hilite/exports/<domain|all>-<timestamp>.jsonl
	Domain string `json:"domain,omitempty"` // optional filter
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes highlights to a JSONL file: one header line, then one
// record per line in collection order. The file is written to a temp name
// and renamed into place, so a failed export leaves any previous file intact.
func Export(ctx context.Context, env *Env, input ExportInput) (*ExportOutput, error) {
	now := env.now()
	domain := strings.TrimSpace(input.Domain)

	path := input.Path
	if path == "" {
		var err error
		if path, err = defaultExportPath(domain, now); err != nil {
			return nil, err
		}
	}
	// Default paths are validated too: the domain ends up in the file name.
	if err := ValidatePath(path, PathCheckWrite, env.config()); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	records := filterHighlights(env.Store.List(ctx), "", domain)

	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tmp := path + "." + hex.EncodeToString(suffix) + ".tmp"
	file, err := openNoFollow(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}
	done := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !done {
			os.Remove(tmp)
		}
	}()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(highlight.NewExportHeader(now.Unix())); err != nil {
		return nil, errors.NewInternal(err)
	}
	for _, h := range records {
		select {
		case <-ctx.Done():
			return nil, errors.NewCancelled("export")
		default:
		}
		if err := enc.Encode(highlight.ToExportRecord(h)); err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	if err := w.Flush(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename follows a symlink at the destination.
	if isSymlink(path) {
		return nil, errors.NewInvalidRequest("path must not be a symlink")
	}
	if err := os.Rename(tmp, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}
	done = true

	return &ExportOutput{Path: path, Count: len(records), ExportedAt: now.Unix()}, nil
}

// defaultExportPath returns ~/.hilite/exports/<domain|all>-<timestamp>.jsonl.
func defaultExportPath(domain string, now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	name := "all"
	if domain != "" {
		name = SanitizeForFilename(strings.ToLower(domain))
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s%s", name, now.Format("2006-01-02T150405"), ExportExt)), nil
}
