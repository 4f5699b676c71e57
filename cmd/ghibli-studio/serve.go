// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ghibli-studio/internal/conversion"
	"github.com/pdiddy/ghibli-studio/internal/selection"
	"github.com/pdiddy/ghibli-studio/internal/session"
	"github.com/pdiddy/ghibli-studio/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a local page for converting images in the browser",
	Long: `Serve starts a local HTTP server hosting one conversion session. Open the
printed address in a browser to upload an image, convert it, and download
the result. State lives in memory and is lost when the server stops.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default 127.0.0.1:8080)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Serve.Addr = addr
	}

	client := conversion.NewClient(cfg.Conversion, conversion.WithLogger(logger))
	sess := session.New(selection.NewManager(), client, session.WithLogger(logger))
	srv := web.NewServer(sess, cfg.Serve, cfg.Download, &http.Client{Timeout: cfg.Conversion.Timeout}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stdout, "Open http://%s in your browser\n", srv.Addr())
	return srv.ListenAndServe(ctx)
}
