package ops

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/hpungsan/hilite/internal/config"
	"github.com/hpungsan/hilite/internal/db"
	"github.com/hpungsan/hilite/internal/highlight"
	"github.com/hpungsan/hilite/internal/notify"
)

var testNow = time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)

// fakeSummarizer returns a canned summary or error.
type fakeSummarizer struct {
	mu         sync.Mutex
	configured bool
	summary    string
	err        error
	calls      int

	// onGenerate runs before the summary is returned.
	onGenerate func()
}

func (f *fakeSummarizer) Configured() bool { return f.configured }

func (f *fakeSummarizer) Generate(_ context.Context, text, domain string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.onGenerate != nil {
		f.onGenerate()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

type testEnv struct {
	*Env
	db  *sql.DB
	bus *notify.Bus
	sum *fakeSummarizer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{tmpDir}

	bus := notify.NewBus(notify.DefaultBuffer)
	env := NewEnv(database, cfg, bus)
	sum := &fakeSummarizer{configured: true, summary: "A short summary."}
	env.Summarizer = sum
	env.Now = func() time.Time { return testNow }
	t.Cleanup(func() { env.Close() })

	return &testEnv{Env: env, db: database, bus: bus, sum: sum}
}

// seed stores highlights directly through the gateway, newest first.
func (e *testEnv) seed(t *testing.T, hs ...highlight.Highlight) {
	t.Helper()
	for i := len(hs) - 1; i >= 0; i-- {
		if !e.Store.Create(context.Background(), hs[i]) {
			t.Fatalf("seed %s failed", hs[i].ID)
		}
	}
}

func newTestHighlight(id, text, pageURL string) highlight.Highlight {
	return highlight.Highlight{
		ID:        id,
		Text:      text,
		URL:       pageURL,
		Title:     "Title " + id,
		Timestamp: testNow.Format(highlight.TimestampLayout),
		Domain:    highlight.Domain(pageURL),
	}
}

func stringPtr(s string) *string { return &s }

// drain returns the messages already queued on ch.
func drain(ch <-chan notify.Message) []notify.Message {
	var out []notify.Message
	for {
		select {
		case m := <-ch:
			out = append(out, m)
		default:
			return out
		}
	}
}
