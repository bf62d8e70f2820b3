package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mateconpizza/marklet/internal/qr"
	"github.com/mateconpizza/marklet/internal/server"
	"github.com/mateconpizza/marklet/internal/sys"
)

type serveFlags struct {
	port         int
	frontendPort int
	origins      []string
	noFrontend   bool
	staticDir    string
	maxConns     int
	open         bool
	qr           bool
	qrPNG        string
}

func (a *app) serveCmd() *cobra.Command {
	var sf serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API and the management page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gin.SetMode(gin.ReleaseMode)
			a.applyServeFlags(cmd, &sf)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.serve(ctx, cmd, &sf)
		},
	}

	sf.register(cmd)

	return cmd
}

func (sf *serveFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVarP(&sf.port, "port", "p", 0, "API port (default from "+server.DefaultAPIAddr+")")
	f.IntVar(&sf.frontendPort, "frontend-port", 0, "management page port, same as --port to share the listener")
	f.StringSliceVar(&sf.origins, "origin", nil, "allowed CORS origin, repeatable or comma separated")
	f.BoolVar(&sf.noFrontend, "no-frontend", false, "serve the API only")
	f.StringVar(&sf.staticDir, "static-dir", "", "serve frontend assets from this directory")
	f.IntVar(&sf.maxConns, "max-conns", 0, "max simultaneous connections per listener (0 is unlimited)")
	f.BoolVarP(&sf.open, "open", "o", false, "open the management page in the default browser")
	f.BoolVar(&sf.qr, "qr", false, "print a QR-Code of the management page URL")
	f.StringVar(&sf.qrPNG, "qr-png", "", "write a labeled QR-Code PNG of the management page URL")
}

// applyServeFlags overrides the server config with the flags that were set.
func (a *app) applyServeFlags(cmd *cobra.Command, sf *serveFlags) {
	s := &a.cfg.Server
	f := cmd.Flags()

	if f.Changed("port") {
		s.APIAddr = ":" + strconv.Itoa(sf.port)
	}
	if f.Changed("frontend-port") {
		s.FrontendAddr = ":" + strconv.Itoa(sf.frontendPort)
		if !f.Changed("origin") {
			s.AllowedOrigins = []string{server.PublicURL(s.FrontendAddr)}
		}
	}
	if f.Changed("origin") {
		s.AllowedOrigins = sf.origins
	}
	if sf.noFrontend {
		s.Frontend = false
	}
	if sf.staticDir != "" {
		s.StaticDir = sf.staticDir
	}
	if f.Changed("max-conns") {
		s.MaxConns = sf.maxConns
	}
}

func (a *app) serve(ctx context.Context, cmd *cobra.Command, sf *serveFlags) error {
	r, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer r.Close()

	svc, err := a.newService(r)
	if err != nil {
		return err
	}

	c := a.cfg.Server
	srv := server.New(svc,
		server.WithAPIAddr(c.APIAddr),
		server.WithFrontendAddr(c.FrontendAddr),
		server.WithAllowedOrigins(c.AllowedOrigins...),
		server.WithFrontend(c.Frontend),
		server.WithStaticDir(c.StaticDir),
		server.WithMaxConns(c.MaxConns),
	)

	apiLn, feLn, err := srv.Listen()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "api:      %s\n", srv.APIURL())
	page := srv.FrontendURL()
	if page != "" {
		fmt.Fprintf(out, "frontend: %s\n", page)
		if err := announce(cmd, page, sf); err != nil {
			_ = apiLn.Close()
			if feLn != nil {
				_ = feLn.Close()
			}

			return err
		}
	}

	return srv.Serve(ctx, apiLn, feLn)
}

// announce prints or writes the QR-Code of url and opens it when asked.
func announce(cmd *cobra.Command, url string, sf *serveFlags) error {
	if sf.qr || sf.qrPNG != "" {
		code := qr.New(url)
		if err := code.Generate(); err != nil {
			return err
		}

		if sf.qr {
			if err := code.Render(cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("rendering qr-code: %w", err)
			}
		}

		if sf.qrPNG != "" {
			if err := code.WritePNG(sf.qrPNG, url); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "qr-code:  %s\n", sf.qrPNG)
		}
	}

	if sf.open {
		if err := sys.OpenInBrowser(url); err != nil {
			slog.Warn("opening browser", "url", url, "error", err)
		}
	}

	return nil
}
