package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hyperjump/ingestd/internal/cli"
	"github.com/hyperjump/ingestd/internal/ingest"
	"github.com/hyperjump/ingestd/internal/models"
	"github.com/hyperjump/ingestd/internal/server"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var output string
	var requestID string
	cmd := &cobra.Command{
		Use:   "ingest <url>",
		Short: "Ingest one document and replace the index snapshot",
		Example: `  ingestd ingest https://example.com/policy.pdf
  ingestd ingest --output json https://example.com/handbook.docx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			req := &models.IngestRequest{Documents: args[0]}
			if err := req.Validate(); err != nil {
				return err
			}

			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			components, err := initializeComponents(cfg, logger)
			if err != nil {
				return err
			}
			defer components.Close()

			if requestID == "" {
				requestID = uuid.New().String()
			}
			start := time.Now()
			res, err := components.Pipeline.Run(cmd.Context(), requestID, req)
			if err != nil {
				resp := &models.ErrorResponse{Error: err.Error()}
				if se := ingest.AsStageError(err); se != nil {
					resp.Stage = string(se.Stage)
				}
				if werr := cli.WriteIngestError(cmd.OutOrStdout(), resp, format); werr != nil {
					return werr
				}
				return fmt.Errorf("ingest %s: %w", req.Documents, err)
			}
			return cli.WriteIngestResult(cmd.OutOrStdout(), &models.IngestResponse{
				Message:   server.SuccessMessage,
				Chunks:    res.Chunks,
				IndexPath: res.IndexPath,
				RequestID: res.RequestID,
			}, time.Since(start), format)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	cmd.Flags().StringVar(&requestID, "request-id", "", "request ID for logs and the manifest (default: random UUID)")
	return cmd
}
