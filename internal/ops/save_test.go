package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/notify"
)

func TestSave_HappyPath(t *testing.T) {
	env := newTestEnv(t)
	msgs, unsub := env.bus.Subscribe()
	defer unsub()

	out, err := Save(context.Background(), env.Env, SaveInput{
		Text:  "  Go is expressive  ",
		URL:   "https://go.dev/doc/",
		Title: "Documentation",
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if out.ID == "" {
		t.Error("ID should be set")
	}
	if out.Text != "Go is expressive" {
		t.Errorf("Text = %q, want trimmed", out.Text)
	}
	if out.Domain != "go.dev" {
		t.Errorf("Domain = %q, want go.dev", out.Domain)
	}
	if out.Timestamp != "2024-03-04T05:06:07.000Z" {
		t.Errorf("Timestamp = %q", out.Timestamp)
	}
	if out.Summary != nil {
		t.Error("Summary should be absent")
	}

	stored, ok := env.Store.Get(context.Background(), out.ID)
	if !ok || stored.Title != "Documentation" {
		t.Errorf("stored = %+v, %v", stored, ok)
	}

	got := drain(msgs)
	if len(got) != 1 || got[0].Type != notify.HighlightSaved || got[0].Highlight.ID != out.ID {
		t.Errorf("notifications = %+v", got)
	}
}

func TestSave_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		input SaveInput
	}{
		{"missing url", SaveInput{Text: "x"}},
		{"relative url", SaveInput{Text: "x", URL: "/path"}},
		{"non-http url", SaveInput{Text: "x", URL: "ftp://a.test/"}},
		{"empty text", SaveInput{Text: "   ", URL: "https://a.test/"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Save(context.Background(), env.Env, tc.input)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("Save() error = %v, want INVALID_REQUEST", err)
			}
		})
	}
	if n := len(env.Store.List(context.Background())); n != 0 {
		t.Errorf("stored %d highlights, want 0", n)
	}
}

func TestSave_StorageFault(t *testing.T) {
	env := newTestEnv(t)
	msgs, unsub := env.bus.Subscribe()
	defer unsub()
	env.db.Close()

	_, err := Save(context.Background(), env.Env, SaveInput{Text: "x", URL: "https://a.test/"})
	if !errors.Is(err, errors.ErrInternal) {
		t.Fatalf("Save() error = %v, want INTERNAL", err)
	}
	if got := drain(msgs); len(got) != 0 {
		t.Errorf("notifications = %+v, want none", got)
	}
}
