package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mateconpizza/marklet/internal/bookmarklet"
	"github.com/mateconpizza/marklet/internal/db"
	"github.com/mateconpizza/marklet/internal/menu"
	"github.com/mateconpizza/marklet/internal/sys/editor"
	"github.com/mateconpizza/marklet/internal/sys/terminal"
)

var ErrMissingID = errors.New("missing bookmarklet id")

// Suggestions offered when prompting for the script fields.
var (
	matchSuggestions = []string{
		"function (url) { return true; }",
		"function (url) { return url.hostname === ''; }",
		"function (url) { return url.pathname.startsWith('/'); }",
	}
	codeSuggestions = []string{
		"function () { }",
	}
)

type itemFlags struct {
	title  string
	match  string
	code   string
	editor bool
}

// editDoc is the document opened in the text editor.
type editDoc struct {
	Title   string `yaml:"title"`
	MatchJS string `yaml:"match_js"`
	CodeJS  string `yaml:"code_js"`
}

func (f *itemFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "title shown in the selector")
	cmd.Flags().StringVarP(&f.match, "match", "m", "", "JavaScript function (url) returning true when the item applies")
	cmd.Flags().StringVarP(&f.code, "code", "C", "", "JavaScript function run when the item is chosen")
}

func (a *app) listCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "l"},
		Short:   "List bookmarklets in selector order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer r.Close()

			items, err := r.All(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(items); err != nil {
					return fmt.Errorf("encoding items: %w", err)
				}

				return nil
			}

			return printTable(cmd.OutOrStdout(), items)
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "print items as JSON")

	return cmd
}

func (a *app) addCmd() *cobra.Command {
	var f itemFlags

	cmd := &cobra.Command{
		Use:     "add",
		Aliases: []string{"new", "a"},
		Short:   "Add a bookmarklet at the end of the list",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b := bookmarklet.New(f.title, f.match, f.code)
			if t := a.term(cmd); t.Interactive() {
				if err := promptMissing(t, b); err != nil {
					return err
				}
			}

			r, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer r.Close()

			id, err := r.Create(cmd.Context(), b)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added %d: %s\n", id, b.Title)

			return nil
		},
	}
	f.register(cmd)

	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var f itemFlags

	cmd := &cobra.Command{
		Use:     "edit [ID]",
		Aliases: []string{"e"},
		Short:   "Edit a bookmarklet, keeping its position",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			t := a.term(cmd)
			ids, err := resolveIDs(ctx, r, t, args, false)
			if err != nil {
				return err
			}

			b, err := r.ByID(ctx, ids[0])
			if err != nil {
				return err
			}

			fl := cmd.Flags()
			changed := fl.Changed("title") || fl.Changed("match") || fl.Changed("code")
			switch {
			case f.editor:
				if err := editInEditor(ctx, b); err != nil {
					return err
				}
			case changed:
				if fl.Changed("title") {
					b.Title = f.title
				}
				if fl.Changed("match") {
					b.MatchJS = f.match
				}
				if fl.Changed("code") {
					b.CodeJS = f.code
				}
			case t.Interactive():
				if err := promptEdit(t, b); err != nil {
					return err
				}
			default:
				return fmt.Errorf("%w: nothing to change", bookmarklet.ErrInvalid)
			}

			if err := r.Update(ctx, b.ID, b); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "updated %d: %s\n", b.ID, b.Title)

			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVarP(&f.editor, "editor", "e", false, "edit as YAML in $EDITOR")

	return cmd
}

func (a *app) rmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm [ID...]",
		Aliases: []string{"remove", "del"},
		Short:   "Remove bookmarklets",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			t := a.term(cmd)
			ids, err := resolveIDs(ctx, r, t, args, true)
			if err != nil {
				return err
			}

			items := make([]*bookmarklet.Item, 0, len(ids))
			for _, id := range ids {
				b, err := r.ByID(ctx, id)
				if err != nil {
					return err
				}
				items = append(items, b)
			}

			if !a.force && t.Interactive() {
				for _, b := range items {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %d  %s\n", b.ID, b.Title)
				}
				if !t.Confirm(fmt.Sprintf("remove %d bookmarklet/s?", len(items)), "n") {
					return terminal.ErrActionAborted
				}
			}

			for _, b := range items {
				if err := r.Delete(ctx, b.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d: %s\n", b.ID, b.Title)
			}

			return nil
		},
	}

	return cmd
}

// resolveIDs parses ids from args, or lets the user pick them with fzf when
// none are given on a terminal.
func resolveIDs(ctx context.Context, r *db.SQLite, t *terminal.Term, args []string, multi bool) ([]int64, error) {
	if len(args) > 0 {
		return parseIDs(args)
	}

	if !t.Interactive() {
		return nil, ErrMissingID
	}

	items, err := r.All(ctx)
	if err != nil {
		return nil, err
	}

	picked, err := pickItems(items, multi)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(picked))
	for _, b := range picked {
		ids = append(ids, b.ID)
	}

	return ids, nil
}

// parseIDs parses positive ids, dropping repeats while keeping order.
func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, s := range args {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: %q", bookmarklet.ErrInvalidID, s)
		}

		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// pickItems lets the user choose items with fzf.
func pickItems(items []*bookmarklet.Item, multi bool, opts ...menu.OptFn) ([]*bookmarklet.Item, error) {
	opts = append([]menu.OptFn{menu.WithHeader("id  title")}, opts...)
	if multi {
		opts = append(opts, menu.WithMultiSelection())
	}

	m := menu.New[*bookmarklet.Item](opts...)
	m.SetItems(items)
	m.SetPreprocessor(func(b **bookmarklet.Item) string {
		return fmt.Sprintf("%d\t%-3d %s", (*b).ID, (*b).ID, (*b).Title)
	})

	return m.Select()
}

// editInEditor opens b as YAML in the user's editor and applies the saved
// fields.
func editInEditor(ctx context.Context, b *bookmarklet.Item) error {
	te, err := editor.New()
	if err != nil {
		return err
	}

	doc := editDoc{Title: b.Title, MatchJS: b.MatchJS, CodeJS: b.CodeJS}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encoding item: %w", err)
	}

	edited, err := te.EditBytes(ctx, data, ".yml")
	if err != nil {
		return err
	}

	if bytes.Equal(data, edited) {
		return fmt.Errorf("%w: no changes", terminal.ErrActionAborted)
	}

	var out editDoc
	if err := yaml.Unmarshal(edited, &out); err != nil {
		return fmt.Errorf("%w: %w", bookmarklet.ErrInvalid, err)
	}

	b.Title, b.MatchJS, b.CodeJS = out.Title, out.MatchJS, out.CodeJS

	return nil
}

// promptMissing asks for every empty field of b.
func promptMissing(t *terminal.Term, b *bookmarklet.Item) error {
	fields := []struct {
		label string
		dst   *string
		sg    []string
	}{
		{"title: ", &b.Title, nil},
		{"match: ", &b.MatchJS, matchSuggestions},
		{"code:  ", &b.CodeJS, codeSuggestions},
	}

	for _, f := range fields {
		if *f.dst != "" {
			continue
		}

		s, err := t.Input(f.label, f.sg...)
		if err != nil {
			return err
		}
		*f.dst = s
	}

	return nil
}

// promptEdit asks for each field of b, keeping the current value on an empty
// answer.
func promptEdit(t *terminal.Term, b *bookmarklet.Item) error {
	fields := []struct {
		label string
		dst   *string
		sg    []string
	}{
		{"title", &b.Title, nil},
		{"match", &b.MatchJS, matchSuggestions},
		{"code", &b.CodeJS, codeSuggestions},
	}

	for _, f := range fields {
		s, err := t.Input(fmt.Sprintf("%s [%s]: ", f.label, shorten(*f.dst, 40)), append([]string{*f.dst}, f.sg...)...)
		if err != nil {
			return err
		}
		if s != "" {
			*f.dst = s
		}
	}

	return nil
}

// printTable writes items as aligned columns.
func printTable(w io.Writer, items []*bookmarklet.Item) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPOS\tTITLE\tMATCH")
	for _, b := range items {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", b.ID, b.Position, b.Title, shorten(b.MatchJS, 48))
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}

	return nil
}

// shorten cuts s to n runes on a single line.
func shorten(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-3]) + "..."
}
