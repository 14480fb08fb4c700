package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/draftkeep/internal/draft"
	"github.com/debemdeboas/draftkeep/internal/editor"
	"github.com/debemdeboas/draftkeep/internal/guard"
)

const (
	routeEditor = "/editor"
	routeExit   = "/exit"
)

func newEditCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Start an interactive editing session",
		Long: `Lines typed are appended to the article. Commands start with ':'

  :go <route>   leave the editor (asks to save the draft first)
  :import       load the saved draft into the editor
  :delete       delete the saved draft
  :save         save now
  :set k=v      set an auxiliary field such as title
  :show         print the current content
  :quit         end the session (asks to save the draft first)

Changes are autosaved after a short pause.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			store, err := e.store(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			return runEdit(ctx, e, store, e.in, cmd.OutOrStdout(), cancel)
		},
	}
}

// lineEditor is the terminal editing surface.
type lineEditor struct {
	mu     sync.Mutex
	lines  []string
	fields map[string]any
}

func (l *lineEditor) Content() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.lines) == 0 {
		return nil
	}
	return []byte(strings.Join(l.lines, "\n") + "\n")
}

func (l *lineEditor) SetContent(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
	if len(b) > 0 {
		l.lines = strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
	}
}

func (l *lineEditor) Fields() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.fields) == 0 {
		return nil
	}
	out := make(map[string]any, len(l.fields))
	for k, v := range l.fields {
		out[k] = v
	}
	return out
}

func (l *lineEditor) SetFields(view map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fields = make(map[string]any, len(view))
	for k, v := range view {
		if k == draft.FieldID || k == draft.FieldContent {
			continue
		}
		l.fields[k] = v
	}
}

func (l *lineEditor) append(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
}

func (l *lineEditor) lineCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

func (l *lineEditor) set(k string, v any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fields == nil {
		l.fields = make(map[string]any)
	}
	l.fields[k] = v
}

// terminalPrompter asks yes/no questions on the session's input.
type terminalPrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *terminalPrompter) Confirm(ctx context.Context, msg string) (bool, error) {
	fmt.Fprint(p.out, promptStyle.Render(msg+" [y/N] "))
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return false, err
		}
		return false, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(p.in.Text())) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func runEdit(ctx context.Context, e *env, store draft.Store, in io.Reader, out io.Writer, cancel context.CancelFunc) error {
	scanner := bufio.NewScanner(in)
	ed := &lineEditor{}
	warn := func(err error) {
		fmt.Fprintln(out, warnStyle.Render("Warning: "+err.Error()))
	}

	ctrl := editor.NewController(store, ed, editor.WithWarning(warn))
	// Failed saves are already reported through the controller's warning.
	auto := editor.NewAutosaver(ctrl, e.cfg.Editor.AutosaveDelay)
	defer auto.Stop()

	unsubscribe := ctrl.Subscribe(func(has bool) {
		if has {
			fmt.Fprintln(out, okStyle.Render("● draft saved"))
		} else {
			fmt.Fprintln(out, warnStyle.Render("○ no saved draft"))
		}
	})
	defer unsubscribe()

	nav := guard.NewNavigator(routeEditor)
	unload := guard.NewSignalUnload(out, func() {
		auto.Stop()
		cancel()
		e.exit(130)
	})
	g := guard.New(ctrl, nav, &terminalPrompter{in: scanner, out: out},
		guard.WithUnload(unload),
		guard.WithSaveTimeout(e.cfg.Editor.SaveTimeout),
		guard.WithPromptMessage(e.cfg.Editor.PromptMessage),
		guard.WithUnloadMessage(e.cfg.Editor.UnloadMessage),
		guard.WithWarning(warn),
	)
	if err := g.Mount(); err != nil {
		return err
	}
	defer g.Unmount()

	listenCtx, stopListening := context.WithCancel(ctx)
	defer stopListening()
	go unload.Listen(listenCtx)

	if ctrl.Mount(ctx) {
		fmt.Fprintln(out, outputStyle.Render("A saved draft exists. Type :import to restore it."))
	}
	fmt.Fprintln(out, "Type your article. :quit to leave, :go <route> to navigate away.")

	for {
		fmt.Fprint(out, promptStyle.Render("> "))
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		if !strings.HasPrefix(line, ":") {
			ed.append(line)
			auto.Touch()
			continue
		}

		command, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
		arg = strings.TrimSpace(arg)

		switch command {
		case "go":
			if arg == "" {
				fmt.Fprintln(out, warnStyle.Render("Usage: :go <route>"))
				continue
			}
			if _, err := leave(ctx, auto, nav, arg); err != nil {
				return err
			}
			fmt.Fprintln(out, outputStyle.Render("Now at "+nav.Current()))
			return nil
		case "quit", "q":
			_, err := leave(ctx, auto, nav, routeExit)
			return err
		case "import":
			ok, err := ctrl.ImportDraft(ctx)
			if err == nil && !ok {
				fmt.Fprintln(out, warnStyle.Render("No saved draft to import"))
			} else if ok {
				fmt.Fprintln(out, outputStyle.Render(fmt.Sprintf("Imported %d lines", ed.lineCount())))
			}
		case "delete":
			ctrl.DeleteDraft(ctx)
		case "save":
			auto.Flush(ctx)
		case "set":
			k, v, ok := strings.Cut(arg, "=")
			if !ok || k == "" {
				fmt.Fprintln(out, warnStyle.Render("Usage: :set key=value"))
				continue
			}
			ed.set(strings.TrimSpace(k), strings.TrimSpace(v))
			auto.Touch()
		case "show":
			out.Write(ed.Content())
		default:
			fmt.Fprintln(out, warnStyle.Render("Unknown command :"+command))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	// End of input leaves the editor like :quit.
	_, err := leave(ctx, auto, nav, routeExit)
	return err
}

// leave cancels the pending autosave so the guard's prompt decides whether
// the current content is saved, then navigates away.
func leave(ctx context.Context, auto *editor.Autosaver, nav *guard.Navigator, to string) (bool, error) {
	auto.Stop()
	return nav.Navigate(ctx, to)
}
