package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fileorg/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check state directories and optional tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			color := shouldColorize(out)

			failed := 0
			var rows [][]string
			for _, result := range preflight.RunAll(cfg) {
				status := paint(color, ansiGreen, "ok")
				if !result.Passed {
					status = paint(color, ansiRed, "fail")
					failed++
				}
				rows = append(rows, []string{result.Name, status, result.Detail})
			}
			for _, dep := range preflight.CheckSystemDeps(cfg) {
				status := paint(color, ansiGreen, "ok")
				detail := dep.Command
				if !dep.Available {
					detail = dep.Detail
					if dep.Optional {
						status = paint(color, ansiYellow, "missing")
						detail += " (optional: " + dep.Description + ")"
					} else {
						status = paint(color, ansiRed, "fail")
						failed++
					}
				}
				rows = append(rows, []string{dep.Name, status, detail})
			}

			fmt.Fprintln(out, tableSpec{
				headers: []string{"Check", "Status", "Detail"},
				rows:    rows,
			}.render())
			if ctx.configSeen {
				fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
			} else {
				fmt.Fprintln(out, "Config: defaults (no config file found)")
			}
			if failed > 0 {
				return errors.New("doctor found problems")
			}
			return nil
		},
	}
}
