package highlight

// ExportSchemaVersion is written to the header line of every export file.
const ExportSchemaVersion = "1.0"

// ExportRecord is one line of a JSONL export file.
// The first line is a header with HiliteExport set and no highlight fields.
type ExportRecord struct {
	// Header detection field - true only for header line
	HiliteExport bool `json:"_hilite_export,omitempty"`

	// Header fields (only present in header line)
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	ID        string  `json:"id,omitempty"`
	Text      string  `json:"text,omitempty"`
	URL       string  `json:"url,omitempty"`
	Title     string  `json:"title,omitempty"`
	Timestamp string  `json:"timestamp,omitempty"`
	Domain    string  `json:"domain,omitempty"` // IGNORED on import, recomputed from url
	Summary   *string `json:"summary,omitempty"`
}

// NewExportHeader returns the header line for an export taken at exportedAt.
func NewExportHeader(exportedAt int64) *ExportRecord {
	return &ExportRecord{
		HiliteExport:  true,
		SchemaVersion: ExportSchemaVersion,
		ExportedAt:    exportedAt,
	}
}

// ToHighlight converts an ExportRecord to a Highlight, recomputing the domain.
func (r *ExportRecord) ToHighlight() Highlight {
	return Highlight{
		ID:        r.ID,
		Text:      r.Text,
		URL:       r.URL,
		Title:     r.Title,
		Timestamp: r.Timestamp,
		Domain:    Domain(r.URL),
		Summary:   r.Summary,
	}
}

// ToExportRecord converts a Highlight to an ExportRecord for export.
func ToExportRecord(h Highlight) *ExportRecord {
	return &ExportRecord{
		ID:        h.ID,
		Text:      h.Text,
		URL:       h.URL,
		Title:     h.Title,
		Timestamp: h.Timestamp,
		Domain:    h.Domain,
		Summary:   h.Summary,
	}
}
