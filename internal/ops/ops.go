package ops

import (
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/hpungsan/hilite/internal/config"
	"github.com/hpungsan/hilite/internal/notify"
	"github.com/hpungsan/hilite/internal/search"
	"github.com/hpungsan/hilite/internal/store"
	"github.com/hpungsan/hilite/internal/summary"
)

// Pagination limits
const (
	DefaultListLimit   = 100
	MaxListLimit       = 1000
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Env is what the operations act on. The CLI, the MCP server and the web
// server each build one at startup.
type Env struct {
	Store      *store.Gateway
	Config     *config.Config
	Bus        notify.Publisher
	Summarizer summary.Summarizer
	HTTPClient *http.Client

	// Now is the clock used for new records. Nil means time.Now.
	Now func() time.Time

	indexMu sync.Mutex
	index   *search.Index
}

// NewEnv wires the default collaborators for database and cfg.
// A nil bus discards notifications.
func NewEnv(database *sql.DB, cfg *config.Config, bus notify.Publisher) *Env {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if bus == nil {
		bus = notify.Discard
	}
	timeout := time.Duration(cfg.FetchTimeoutSeconds) * time.Second
	return &Env{
		Store:      store.New(database),
		Config:     cfg,
		Bus:        bus,
		Summarizer: summary.New(cfg),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Close releases the search index, if one was built.
func (e *Env) Close() error {
	e.indexMu.Lock()
	defer e.indexMu.Unlock()
	if e.index == nil {
		return nil
	}
	err := e.index.Close()
	e.index = nil
	return err
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Env) publish(msg notify.Message) {
	if e.Bus != nil {
		e.Bus.Publish(msg)
	}
}

func (e *Env) config() *config.Config {
	if e.Config == nil {
		return config.DefaultConfig()
	}
	return e.Config
}

// searchIndex returns the process-wide index, building it on first use.
func (e *Env) searchIndex() (*search.Index, error) {
	e.indexMu.Lock()
	defer e.indexMu.Unlock()
	if e.index != nil {
		return e.index, nil
	}
	idx, err := search.New()
	if err != nil {
		return nil, err
	}
	e.index = idx
	return idx, nil
}
