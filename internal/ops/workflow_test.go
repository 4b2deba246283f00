package ops

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/hilite/internal/errors"
)

// TestFullWorkflow exercises the highlight lifecycle:
// capture → list → summarize → search → export → clear → import → delete → fetch (not found)
func TestFullWorkflow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pageURL := "https://blog.test/post"

	// 1. Capture
	capOut, err := Capture(ctx, env.Env, CaptureInput{URL: pageURL, HTML: articleHTML, Selection: "Delta epsilon"})
	require.NoError(t, err)
	require.True(t, capOut.Wrapped)
	id := capOut.Highlight.ID

	// 2. Save a second one directly
	_, err = Save(ctx, env.Env, SaveInput{Text: "Another thought", URL: "https://other.test/"})
	require.NoError(t, err)

	// 3. List
	listOut, err := List(ctx, env.Env, ListInput{Domain: "blog.test"})
	require.NoError(t, err)
	require.Len(t, listOut.Items, 1)
	require.Equal(t, id, listOut.Items[0].ID)
	require.Equal(t, 2, listOut.Stats.Total)
	require.Equal(t, 0, listOut.Stats.Summarized)

	// 4. Summarize
	sumOut, err := Summarize(ctx, env.Env, SummarizeInput{ID: id})
	require.NoError(t, err)
	require.Equal(t, "A short summary.", sumOut.Summary)

	listOut, err = List(ctx, env.Env, ListInput{})
	require.NoError(t, err)
	require.Equal(t, 1, listOut.Stats.Summarized)

	// 5. Search
	searchOut, err := Search(ctx, env.Env, SearchInput{Query: "epsilon"})
	require.NoError(t, err)
	require.Equal(t, 1, searchOut.Total)
	require.Equal(t, id, searchOut.Items[0].ID)

	// 6. Export, clear, import
	path := filepath.Join(env.Config.AllowedPaths[0], "backup.jsonl")
	expOut, err := Export(ctx, env.Env, ExportInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 2, expOut.Count)

	clearOut, err := Clear(ctx, env.Env, ClearInput{Confirm: true})
	require.NoError(t, err)
	require.Equal(t, 2, clearOut.Cleared)

	impOut, err := Import(ctx, env.Env, ImportInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 2, impOut.Imported)

	// 7. View shows the restored highlight on the page
	viewOut, err := View(ctx, env.Env, ViewInput{URL: pageURL, HTML: articleHTML})
	require.NoError(t, err)
	require.Equal(t, 1, viewOut.Applied)

	// 8. Delete, then fetch
	delOut, err := Delete(ctx, env.Env, DeleteInput{ID: id})
	require.NoError(t, err)
	require.True(t, delOut.Deleted)

	_, err = Fetch(ctx, env.Env, FetchInput{ID: id})
	require.Error(t, err)
	var hErr *errors.HiliteError
	require.ErrorAs(t, err, &hErr)
	require.Equal(t, errors.ErrNotFound, hErr.Code)
}
