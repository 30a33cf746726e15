package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/haormj/imgbench/bench"
	"github.com/haormj/imgbench/chart"
	"github.com/haormj/imgbench/log"
	"github.com/haormj/version"
	"github.com/spf13/cobra"
)

var sizes = []int{256, 512, 1024, 2048}

func newRootCmd() *cobra.Command {
	var (
		logLevel string
		format   string
	)

	rootCmd := &cobra.Command{
		Use:   "imgbench",
		Short: "Compare CPU and GPU elementwise throughput on synthetic images",
		Long: `imgbench times out = in*1.5 + 2.0 on random 3-channel images of
256, 512, 1024 and 2048 pixels square, on the CPU and on an OpenCL
accelerator when the binary is built with -tags opencl and one is present,
then shows a plot of the average time per trial.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := log.New(os.Stderr, logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			f, err := chart.ParseFormat(format)
			if err != nil {
				return err
			}

			return bench.BenchmarkAndPlot(sizes,
				bench.WithChannels(bench.DefaultChannels),
				bench.WithTrials(bench.DefaultTrials),
				bench.WithSeed(bench.DefaultSeed),
				bench.WithFormat(f),
				bench.WithLogger(logger),
			)
		},
	}

	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error, crit)")
	rootCmd.Flags().StringVar(&format, "format", string(chart.PNG), "Figure format (png or html)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.FullVersion())
		},
	})

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
