package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mateconpizza/rotato"
	"github.com/spf13/cobra"

	"github.com/mateconpizza/marklet/internal/service"
	"github.com/mateconpizza/marklet/internal/sys"
	"github.com/mateconpizza/marklet/internal/sys/files"
)

func (a *app) selectorCmd() *cobra.Command {
	var (
		minify  bool
		uri     bool
		copyURI bool
		asJSON  bool
		out     string
	)

	cmd := &cobra.Command{
		Use:     "selector",
		Aliases: []string{"sel"},
		Short:   "Print the selector script or its bookmarklet URL",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("minify") {
				a.cfg.Minify.Enabled = minify
			}

			ctx := cmd.Context()
			r, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			svc, err := a.newService(r)
			if err != nil {
				return err
			}

			done := func(error) {}
			if svc.Minifies() && sys.IsTerminal(os.Stderr) {
				sp := rotato.New(
					rotato.WithMesg("minifying selector..."),
					rotato.WithMesgColor(rotato.ColorGray),
					rotato.WithSpinnerColor(rotato.ColorBrightGreen),
				)
				sp.Start()
				done = func(err error) {
					if err != nil {
						sp.Fail("failed")
						return
					}
					sp.Done()
				}
			}

			p, err := svc.Selector(ctx)
			done(err)
			if err != nil {
				return err
			}

			if copyURI {
				if err := sys.CopyClipboard(p.BookmarkletURL); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "bookmarklet URL copied to clipboard")
			}

			s, err := selectorOutput(p, uri, asJSON)
			if err != nil {
				return err
			}

			if out != "" {
				return files.WriteFile(out, []byte(s), true)
			}

			if !copyURI {
				fmt.Fprint(cmd.OutOrStdout(), s)
			}

			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&minify, "minify", "m", true, "minify through the configured command")
	f.BoolVarP(&uri, "uri", "u", false, "print the javascript: URL instead of the script")
	f.BoolVar(&copyURI, "copy", false, "copy the javascript: URL to the clipboard")
	f.BoolVarP(&asJSON, "json", "j", false, "print the payload the API returns")
	f.StringVar(&out, "out", "", "write to file instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("uri", "json")

	return cmd
}

// selectorOutput formats the payload as script, URL or JSON.
func selectorOutput(p *service.Payload, uri, asJSON bool) (string, error) {
	switch {
	case asJSON:
		b, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding payload: %w", err)
		}

		return string(b) + "\n", nil
	case uri:
		return p.BookmarkletURL + "\n", nil
	default:
		return p.JavaScript + "\n", nil
	}
}
