package terminal

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	prompt "github.com/c-bata/go-prompt"
)

// Input reads a single line from the user. On a terminal it uses a line
// editor with the given suggestions; otherwise it reads a plain line.
func (t *Term) Input(p string, suggestions ...string) (string, error) {
	if !t.Interactive() {
		return t.Prompt(p)
	}

	// go-prompt leaves the terminal in raw mode on exit.
	// https://github.com/c-bata/go-prompt/issues/233
	if err := t.saveState(); err != nil {
		return "", err
	}
	defer func() {
		if err := t.restoreState(); err != nil && !errors.Is(err, ErrNoStateToRestore) {
			slog.Warn("restoring terminal", "error", err)
		}
	}()

	s := prompt.Input(p, completer(suggestions),
		prompt.OptionPrefixTextColor(prompt.Yellow),
		prompt.OptionInputTextColor(prompt.DefaultColor),
		prompt.OptionSuggestionBGColor(prompt.Black),
		prompt.OptionSuggestionTextColor(prompt.White),
		prompt.OptionSelectedSuggestionBGColor(prompt.White),
		prompt.OptionSelectedSuggestionTextColor(prompt.Black),
		prompt.OptionAddKeyBind(prompt.KeyBind{
			Key: prompt.ControlC,
			Fn: func(*prompt.Buffer) {
				if err := t.restoreState(); err != nil {
					slog.Warn("restoring terminal", "error", err)
				}
				t.interruptFn(ErrActionAborted)
			},
		}),
	)

	return strings.TrimSpace(s), nil
}

// Prompt prints p and reads a line from the reader.
func (t *Term) Prompt(p string) (string, error) {
	fmt.Fprint(t.writer, p)

	s, err := t.br.ReadString('\n')
	if err != nil && s == "" {
		return "", fmt.Errorf("%w: %w", ErrActionAborted, err)
	}

	return strings.TrimSpace(s), nil
}

// Confirm asks a yes/no question. An empty answer selects def.
func (t *Term) Confirm(q, def string) bool {
	if len(def) > 1 {
		def = def[:1]
	}
	def = strings.ToLower(def)
	opts := []string{"y", "n"}
	if !slices.Contains(opts, def) {
		def = "n"
	}

	p := buildPrompt(q, fmt.Sprintf("[%s]:", strings.Join(fmtChoicesWithDefault(opts, def), "/")))
	for {
		fmt.Fprint(t.writer, p)

		s, err := t.br.ReadString('\n')
		s = strings.ToLower(strings.TrimSpace(s))
		switch {
		case s == "" && err == nil:
			return def == "y"
		case s == "y" || s == "yes":
			return true
		case s == "n" || s == "no":
			return false
		case err != nil:
			return false
		}

		fmt.Fprintln(t.writer, "invalid response, use: y/n")
	}
}

// completer returns a prefix-matching suggester for the given terms.
func completer(terms []string) prompt.Completer {
	sg := make([]prompt.Suggest, 0, len(terms))
	for _, s := range terms {
		sg = append(sg, prompt.Suggest{Text: s})
	}

	return func(in prompt.Document) []prompt.Suggest {
		w := in.GetWordBeforeCursor()
		if w == "" {
			return nil
		}

		return prompt.FilterHasPrefix(sg, w, true)
	}
}

// fmtChoicesWithDefault capitalizes the default option and moves it to the
// end.
func fmtChoicesWithDefault(opts []string, def string) []string {
	out := make([]string, 0, len(opts))
	var d string
	for _, o := range opts {
		if o == def {
			d = strings.ToUpper(o[:1]) + o[1:]
			continue
		}
		out = append(out, o)
	}
	if d != "" {
		out = append(out, d)
	}

	return out
}

// buildPrompt returns a formatted string with a question and options.
func buildPrompt(q, opts string) string {
	if opts == "" {
		return q + " "
	}

	return fmt.Sprintf("%s %s ", q, opts)
}
