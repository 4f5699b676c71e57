// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/ghibli-studio/internal/conversion"
	"github.com/pdiddy/ghibli-studio/internal/download"
	"github.com/pdiddy/ghibli-studio/internal/selection"
	"github.com/pdiddy/ghibli-studio/internal/session"
	"github.com/pdiddy/ghibli-studio/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert <image>",
	Short: "Convert a local image to Ghibli style and save the result",
	Long: `Convert stages a local image, posts it once to the conversion service, and
saves the stylized result as ghibli-style-image.png in the output directory.
Failures are reported and never retried automatically; run the command again
to retry.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("output-dir", "", "directory for the saved image (default .)")
	convertCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		cfg.Download.OutputDir = dir
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Conversion.Timeout = timeout
	}

	_, err = convertFile(cmd.Context(), cfg, args[0], os.Stdout, logger)
	return err
}

// convertFile runs one select, convert, download cycle through a fresh
// session and returns the saved path.
func convertFile(ctx context.Context, cfg types.Config, path string, w io.Writer, log zerolog.Logger) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	f, err := selection.OpenLocal(path)
	if err != nil {
		fmt.Fprintf(w, "failed:     %s (%v)\n", path, err)
		return "", err
	}

	client := conversion.NewClient(cfg.Conversion, conversion.WithLogger(log))
	sess := session.New(selection.NewManager(), client, session.WithLogger(log))
	defer sess.Wait()

	img, err := sess.SelectFile(ctx, f)
	if err != nil {
		fmt.Fprintf(w, "failed:     %s (%s)\n", f.Name(), types.UserMessage(err))
		return "", err
	}
	fmt.Fprintf(w, "selected:   %s (%s, %d bytes)\n", img.Name, img.MediaType, img.Size())
	fmt.Fprintf(w, "converting: %s via %s\n", img.Name, client.Endpoint())

	if _, err := sess.ConvertAndWait(ctx); err != nil {
		fmt.Fprintf(w, "failed:     %s (%s)\n", img.Name, types.UserMessage(err))
		return "", err
	}
	fmt.Fprintf(w, "converted:  %s\n", img.Name)

	saver := download.NewFileSaver(cfg.Download, &http.Client{Timeout: cfg.Conversion.Timeout})
	did, err := sess.Download(ctx, saver)
	if err != nil {
		fmt.Fprintf(w, "failed:     saving %s (%v)\n", saver.Path(), err)
		return "", err
	}
	if !did {
		return "", errors.New("conversion finished without a result")
	}
	fmt.Fprintf(w, "saved:      %s\n", saver.Path())
	return saver.Path(), nil
}
