package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/internal/server"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/metrics"
)

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "pipesizer",
		Short: "Cost-optimal pipe diameters for building cold-water networks",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogging(verbose, false)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(solveCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(serveCmd(&verbose))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(verbose, asJSON bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if asJSON {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

func solveCmd() *cobra.Command {
	var (
		asJSON    bool
		scenePath string
	)

	cmd := &cobra.Command{
		Use:   "solve [project-path]",
		Short: "Size every segment at minimum cost and report pressure margins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd.Context(), args[0], asJSON, scenePath)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run as JSON")
	cmd.Flags().StringVar(&scenePath, "scene", "", "also write the 3D scene graph of the result to this file")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [project-path]",
		Short: "Validate the project file, tables and network without solving",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}
}

func compareCmd() *cobra.Command {
	var (
		manualPath  string
		interactive bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "compare [project-path]",
		Short: "Compare the optimized diameters with a manual assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd.Context(), args[0], manualPath, interactive, asJSON)
		},
	}

	cmd.Flags().StringVarP(&manualPath, "manual", "m", "", "file with one nominal diameter per line in traversal order")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "type the manual diameters segment by segment")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the comparison as JSON")
	cmd.MarkFlagsOneRequired("manual", "interactive")
	cmd.MarkFlagsMutuallyExclusive("manual", "interactive")
	return cmd
}

func serveCmd(verbose *bool) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve [project-path]",
		Short: "Serve the sizing API and Prometheus metrics for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			setupLogging(*verbose, true)
			srv := server.New(args[0], port, slog.Default(), metrics.DefaultRegistry())
			return srv.Start()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "HTTP server port")
	return cmd
}
