package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/hyperjump/ingestd/internal/cli"
)

var errVerifyFailed = errors.New("index verification failed")

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Reload the index snapshot and check it",
		Long: `Reload the index snapshot and check that every chunk's own embedding returns
that chunk as the top hit, and that the keyword sidecar finds the first chunk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			store := newIndexStore(cfg, logger)
			snap, err := store.Open(ctx)
			if err != nil {
				return err
			}
			defer snap.Close()

			selfMatch, err := snap.VerifySelfMatch(ctx)
			if err != nil {
				return err
			}
			probe, err := snap.ProbeKeyword(ctx)
			if err != nil {
				return err
			}
			report := &cli.VerifyReport{
				Path:      snap.Dir(),
				Manifest:  snap.Manifest,
				Vectors:   snap.VectorCount(),
				SelfMatch: selfMatch,
				Keyword:   probe,
				OK:        selfMatch.OK() && (probe.Found || probe.Query == ""),
			}
			if err := cli.WriteVerifyReport(cmd.OutOrStdout(), report, format); err != nil {
				return err
			}
			if !report.OK {
				return errVerifyFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}
