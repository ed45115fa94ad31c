package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ticketscan/backend/internal/config"
	"ticketscan/backend/internal/logging"
	"ticketscan/backend/internal/ticketparser"
	"ticketscan/backend/internal/ticketparser/core"
	"ticketscan/backend/internal/ticketparser/extract"
)

type output struct {
	RawText string           `json:"raw_text"`
	Fields  core.FieldRecord `json:"fields"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var catalogPath string
	root := &cobra.Command{
		Use:           "ticketscan-parse",
		Short:         "Extract event date, venue and title from ticket text or photos",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&catalogPath, "catalog", "", "YAML or JSON rule catalog (default: built-in)")
	root.AddCommand(newTextCmd(&catalogPath), newImageCmd(&catalogPath))
	return root
}

func newTextCmd(catalogPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "text [file|-]",
		Short: "Extract fields from OCR text read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extractor, err := extract.NewFromFile(*catalogPath)
			if err != nil {
				return err
			}
			var raw []byte
			if len(args) == 0 || args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read text: %w", err)
			}
			text := string(raw)
			return writeOutput(cmd.OutOrStdout(), output{RawText: text, Fields: core.ExtractFields(extractor, text)})
		},
	}
}

func newImageCmd(catalogPath *string) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "image <file>",
		Short: "OCR a ticket photo with the configured backend, then extract fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if *catalogPath != "" {
				cfg.CatalogFile = *catalogPath
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: logging.ParseLevel(cfg.Logging.Level),
			})).With("service", "cli")

			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			scanner, cleanup, err := ticketparser.NewScanner(cfg, logger, nil, nil)
			if err != nil {
				return err
			}
			defer func() {
				_ = cleanup()
			}()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			result, err := scanner.Scan(ctx, core.ScanInput{Image: image, FileName: args[0]})
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output{RawText: result.RawText, Fields: result.Fields})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "OCR timeout")
	return cmd
}

func writeOutput(w io.Writer, out output) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
