package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/highlight"
	"github.com/hpungsan/hilite/internal/notify"
)

// ImportMode controls what happens when an imported id already exists.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on collision, import nothing
	ImportModeReplace ImportMode = "replace" // overwrite the existing record
	ImportModeRename  ImportMode = "rename"  // import under a fresh id
)

// maxImportLine bounds a single JSONL line.
const maxImportLine = 4 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     `json:"path"`           // required
	Mode ImportMode `json:"mode,omitempty"` // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes one line that was not imported.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type importRecord struct {
	line int
	h    highlight.Highlight
}

// Import reads a JSONL export file into the collection.
// Imported records are merged into the collection in timestamp order.
func Import(ctx context.Context, env *Env, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	switch input.Mode {
	case ImportModeError, ImportModeReplace, ImportModeRename:
	default:
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, rename")
	}
	if err := ValidatePath(input.Path, PathCheckRead, env.config()); err != nil {
		return nil, err
	}

	file, err := openNoFollow(input.Path, 0, 0)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, parseErrors := parseExport(file, env)
	out := &ImportOutput{Errors: []ImportError{}}

	// mode:error is all-or-nothing.
	if input.Mode == ImportModeError && len(parseErrors) > 0 {
		out.Errors = parseErrors
		return out, nil
	}
	out.Errors = append(out.Errors, parseErrors...)
	out.Skipped = len(parseErrors)

	var (
		imported int
		rejected []ImportError
	)
	ok := env.Store.Modify(ctx, "import", func(hs []highlight.Highlight) ([]highlight.Highlight, bool) {
		imported = 0
		rejected = nil

		pos := make(map[string]int, len(hs))
		for i, h := range hs {
			pos[h.ID] = i
		}
		for _, r := range records {
			h := r.h
			i, exists := pos[h.ID]
			switch {
			case !exists:
				pos[h.ID] = len(hs)
				hs = append(hs, h)
			case input.Mode == ImportModeError:
				rejected = append(rejected, ImportError{
					Line:    r.line,
					ID:      h.ID,
					Code:    "ID_COLLISION",
					Message: fmt.Sprintf("highlight with id %q already exists", h.ID),
				})
				return nil, false
			case input.Mode == ImportModeReplace:
				hs[i] = h
			case input.Mode == ImportModeRename:
				h.ID = highlight.NewID(env.now())
				pos[h.ID] = len(hs)
				hs = append(hs, h)
			}
			imported++
		}
		if imported == 0 {
			return hs, false
		}
		slices.SortStableFunc(hs, func(a, b highlight.Highlight) int {
			return strings.Compare(b.Timestamp, a.Timestamp)
		})
		return hs, true
	})
	if len(rejected) > 0 {
		out.Errors = append(out.Errors, rejected...)
		return out, nil
	}
	if !ok {
		return nil, errors.NewInternal(nil)
	}

	out.Imported = imported
	if imported > 0 {
		env.publish(notify.Message{Type: notify.HighlightsImported})
	}
	return out, nil
}

// parseExport reads every line of an export file. The header line is
// skipped; lines that are not a usable record become ImportErrors.
func parseExport(r io.Reader, env *Env) ([]importRecord, []ImportError) {
	var (
		records []importRecord
		errs    []ImportError
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var rec highlight.ExportRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			errs = append(errs, ImportError{Line: line, Code: "PARSE_ERROR", Message: fmt.Sprintf("invalid JSON: %v", err)})
			continue
		}
		if rec.HiliteExport {
			continue
		}
		if rec.ID == "" {
			errs = append(errs, ImportError{Line: line, Code: "INVALID_RECORD", Message: "missing id field"})
			continue
		}
		if strings.TrimSpace(rec.Text) == "" {
			errs = append(errs, ImportError{Line: line, ID: rec.ID, Code: "INVALID_RECORD", Message: "missing text field"})
			continue
		}

		h := rec.ToHighlight()
		if h.Timestamp == "" {
			h.Timestamp = env.now().UTC().Format(highlight.TimestampLayout)
		}
		records = append(records, importRecord{line: line, h: h})
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, ImportError{Line: line, Code: "READ_ERROR", Message: fmt.Sprintf("failed to read file: %v", err)})
	}
	return records, errs
}
