package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fileorg/internal/config"
	"fileorg/internal/deps"
	"fileorg/internal/metadata"
	"fileorg/internal/signature"
	"fileorg/internal/textutil"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var noEnrich bool

	cmd := &cobra.Command{
		Use:   "classify FILE...",
		Short: "Show the detected kind, category, and metadata token for files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			registry := metadata.NewRegistry(metadata.Options{
				FFprobeBinary: deps.ResolveFFprobePath(cfg.FFprobeBinary()),
				ProbeTimeout:  time.Duration(cfg.Media.ProbeTimeoutSeconds) * time.Second,
				Logger:        logger,
			})
			matcher := signature.Default()

			rows := make([][]string, 0, len(args))
			for _, arg := range args {
				path, err := config.ExpandPath(arg)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", arg, err)
				}
				result := matcher.Classify(path)
				token := "-"
				if !noEnrich {
					rec, err := registry.Extract(cmd.Context(), path, result)
					switch {
					case err != nil:
						token = "error: " + err.Error()
					case rec != nil:
						token = rec.Token()
					}
				}
				rows = append(rows, []string{
					textutil.TruncateMiddle(arg, 60),
					result.Kind.String(),
					result.Category.String(),
					string(result.Method),
					token,
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), tableSpec{
				headers: []string{"File", "Kind", "Category", "Method", "Metadata"},
				rows:    rows,
			}.render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&noEnrich, "no-enrich", false, "Skip metadata extraction")
	return cmd
}
