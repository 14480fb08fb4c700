package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/draftkeep/internal/draft"
	"github.com/debemdeboas/draftkeep/internal/editor"
	"github.com/debemdeboas/draftkeep/internal/render"
)

func newStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a draft is saved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := e.store(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			r, err := store.Get(ctx)
			if errors.Is(err, draft.ErrNotFound) {
				fmt.Fprintln(out, warnStyle.Render("No saved draft"))
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(out, okStyle.Render("Draft saved"))
			row := func(label, value string) {
				fmt.Fprintln(out, labelStyle.Render(label)+value)
			}
			if title := r.Title(); title != "" {
				row("title", title)
			}
			row("saved", r.SavedAt.Local().Format(time.DateTime))
			row("size", fmt.Sprintf("%d bytes", len(r.Content)))
			row("hash", shortHash(r.Hash))
			row("backend", e.cfg.Storage.Backend)
			return nil
		},
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func newShowCmd(e *env) *cobra.Command {
	var asHTML, color bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the saved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := e.store(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			r, err := store.Get(ctx)
			if errors.Is(err, draft.ErrNotFound) {
				return fmt.Errorf("no saved draft")
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asHTML:
				html, _ := render.NewPreviewer(e.cfg.Preview.SyntaxTheme).Preview(r.Content)
				_, err = out.Write(html)
			case color:
				err = render.HighlightSource(out, r.Content, e.cfg.Preview.SyntaxTheme, "terminal256")
			default:
				_, err = out.Write(r.Content)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "Render the draft as HTML")
	cmd.Flags().BoolVar(&color, "color", false, "Highlight the markdown source for the terminal")
	return cmd
}

func parseFields(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	fields := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid field %q, expected key=value", pair)
		}
		fields[k] = v
	}
	return fields, nil
}

func newSaveCmd(e *env) *cobra.Command {
	var file string
	var fieldPairs []string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save content as the draft, replacing any saved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(fieldPairs)
			if err != nil {
				return err
			}

			var content []byte
			if file == "" || file == "-" {
				content, err = io.ReadAll(e.in)
			} else {
				content, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("error reading content: %w", err)
			}

			ctx := cmd.Context()
			store, err := e.store(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			c := editor.NewController(store, editor.Funcs{
				GetContent: func() []byte { return content },
				GetFields:  func() map[string]any { return fields },
			})
			if err := c.SaveCurrent(ctx); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), outputStyle.Render(fmt.Sprintf("Saved draft (%d bytes)", len(content))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read content from file instead of stdin")
	cmd.Flags().StringArrayVar(&fieldPairs, "field", nil, "Auxiliary field as key=value (repeatable)")
	return cmd
}

func newImportCmd(e *env) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Write the saved draft out without removing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := e.store(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			var content []byte
			c := editor.NewController(store, editor.Funcs{
				PutContent: func(b []byte) { content = b },
			})
			ok, err := c.ImportDraft(ctx)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("No saved draft"))
				return nil
			}

			if outPath == "" || outPath == "-" {
				_, err = cmd.OutOrStdout().Write(content)
				return err
			}
			if err := os.WriteFile(outPath, content, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), outputStyle.Render("Draft written to "+outPath))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to file instead of stdout")
	return cmd
}

func newDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete the saved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := e.store(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := editor.NewController(store, editor.Funcs{}).DeleteDraft(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outputStyle.Render("Draft deleted"))
			return nil
		},
	}
}
