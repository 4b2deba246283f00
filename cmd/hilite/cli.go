package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/notify"
	"github.com/hpungsan/hilite/internal/ops"
	"github.com/hpungsan/hilite/internal/web"
)

// maxStdinBytes caps text and HTML read from stdin or --html-file.
const maxStdinBytes = 10 << 20

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *ops.Env) *cli.App {
	app := &cli.App{
		Name:    "hilite",
		Usage:   "Save and summarize web page highlights",
		Version: Version,
		Commands: []*cli.Command{
			saveCmd(env),
			captureCmd(env),
			listCmd(env),
			fetchCmd(env),
			updateCmd(env),
			deleteCmd(env),
			bulkDeleteCmd(env),
			clearCmd(env),
			summarizeCmd(env),
			searchCmd(env),
			viewCmd(env),
			exportCmd(env),
			importCmd(env),
			serveCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func saveCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Save a highlight (text from --text or stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Required: true, Usage: "Page URL"},
			&cli.StringFlag{Name: "text", Usage: "Highlighted text (default: stdin)"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Page title"},
		},
		Action: func(c *cli.Context) error {
			text := c.String("text")
			if text == "" {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("text must be given with --text or piped via stdin"))
				}
				var err error
				if text, err = readStdin(maxStdinBytes); err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
			}

			output, err := ops.Save(c.Context, env, ops.SaveInput{
				Text:  text,
				URL:   c.String("url"),
				Title: c.String("title"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func captureCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Select text on a page, mark it and save it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Required: true, Usage: "Page URL"},
			&cli.StringFlag{Name: "selection", Aliases: []string{"s"}, Required: true, Usage: "Text to select"},
			&cli.StringFlag{Name: "html-file", Usage: "Read page HTML from this file instead of fetching the URL"},
			&cli.BoolFlag{Name: "include-html", Usage: "Include the marked-up page in the output"},
		},
		Action: func(c *cli.Context) error {
			html, err := readHTMLFile(c.String("html-file"))
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Capture(c.Context, env, ops.CaptureInput{
				URL:         c.String("url"),
				HTML:        html,
				Selection:   c.String("selection"),
				IncludeHTML: c.Bool("include-html"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func listCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List highlights, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "Filter by exact page URL"},
			&cli.StringFlag{Name: "domain", Aliases: []string{"d"}, Usage: "Filter by domain"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, env, ops.ListInput{
				URL:    c.String("url"),
				Domain: c.String("domain"),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func fetchCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch a highlight by id",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Aliases: []string{"i"}, Required: true, Usage: "Highlight id"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Fetch(c.Context, env, ops.FetchInput{ID: c.String("id")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func updateCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Set a highlight's summary",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Aliases: []string{"i"}, Required: true, Usage: "Highlight id"},
			&cli.StringFlag{Name: "summary", Usage: "New summary"},
		},
		Action: func(c *cli.Context) error {
			input := ops.UpdateInput{ID: c.String("id")}
			if c.IsSet("summary") {
				summary := c.String("summary")
				input.Summary = &summary
			}
			output, err := ops.Update(c.Context, env, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func deleteCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "Delete a highlight by id",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Aliases: []string{"i"}, Required: true, Usage: "Highlight id"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(c.Context, env, ops.DeleteInput{ID: c.String("id")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func bulkDeleteCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "bulk-delete",
		Usage: "Delete every highlight matching the filters",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "Filter by exact page URL"},
			&cli.StringFlag{Name: "domain", Aliases: []string{"d"}, Usage: "Filter by domain"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.BulkDelete(c.Context, env, ops.BulkDeleteInput{
				URL:    c.String("url"),
				Domain: c.String("domain"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func clearCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Delete all highlights",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm deleting everything"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Clear(c.Context, env, ops.ClearInput{Confirm: c.Bool("yes")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func summarizeCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "summarize",
		Usage: "Generate and store a summary for a highlight",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Aliases: []string{"i"}, Required: true, Usage: "Highlight id"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Summarize(c.Context, env, ops.SummarizeInput{ID: c.String("id")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func searchCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search over highlights",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search query (default: the positional arguments)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultSearchLimit, Usage: "Maximum hits"},
		},
		Action: func(c *cli.Context) error {
			query, err := searchQuery(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Search(c.Context, env, ops.SearchInput{
				Query: query,
				Limit: c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func viewCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "view",
		Usage: "Print a page with its saved highlights marked",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Required: true, Usage: "Page URL"},
			&cli.StringFlag{Name: "html-file", Usage: "Read page HTML from this file instead of fetching the URL"},
			&cli.BoolFlag{Name: "raw", Usage: "Print the HTML instead of JSON"},
		},
		Action: func(c *cli.Context) error {
			html, err := readHTMLFile(c.String("html-file"))
			if err != nil {
				return outputError(err)
			}
			output, err := ops.View(c.Context, env, ops.ViewInput{URL: c.String("url"), HTML: html})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("raw") {
				_, err := io.WriteString(os.Stdout, output.HTML)
				return err
			}
			return outputJSON(output)
		},
	}
}

func exportCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export highlights to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.hilite/exports/<domain|all>-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "domain", Aliases: []string{"d"}, Usage: "Filter by domain"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, env, ops.ExportInput{
				Path:   c.String("path"),
				Domain: c.String("domain"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func importCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import highlights from a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace|rename"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, env, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func serveCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to listen on"},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			bus, ok := env.Bus.(*notify.Bus)
			if !ok {
				bus = notify.NewBus(notify.DefaultBuffer)
				env.Bus = bus
			}
			srv := web.NewServer(env, bus, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if hErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", hErr.Code, hErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("stdin exceeds %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}

// searchQuery returns --query, or the positional arguments joined by spaces.
// Flags are only parsed before the first positional argument, so a trailing
// token that looks like a flag is rejected instead of being searched for.
func searchQuery(c *cli.Context) (string, error) {
	if c.IsSet("query") {
		if c.Args().Present() {
			return "", errors.NewInvalidRequest("give the query with --query or as arguments, not both")
		}
		return c.String("query"), nil
	}
	args := c.Args().Slice()
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") && len(arg) > 1 {
			return "", errors.NewInvalidRequest(fmt.Sprintf("flag %q must come before the query (or use --query)", arg))
		}
	}
	return strings.Join(args, " "), nil
}

// readHTMLFile returns the contents of path, or "" when path is empty.
func readHTMLFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewFileNotFound(path)
		}
		return "", errors.NewInvalidRequest(fmt.Sprintf("open html file: %v", err))
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxStdinBytes+1))
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("read html file: %v", err))
	}
	if len(data) > maxStdinBytes {
		return "", errors.NewInvalidRequest(fmt.Sprintf("html file exceeds %d bytes", maxStdinBytes))
	}
	return string(data), nil
}
