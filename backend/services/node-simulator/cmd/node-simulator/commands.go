package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studyspace/backend/libs/logging"
	"studyspace/backend/services/node-simulator/internal/clients"
	"studyspace/backend/services/node-simulator/internal/config"
	"studyspace/backend/services/node-simulator/internal/simulator"
)

var (
	gNode         = "Node:"
	gOperator     = "Operator:"
	commandGroups = []string{gNode, gOperator}
)

var apiClient *clients.CollectorClient

// NewCommand builds the root command. Flag defaults come from cfg, which
// already carries file and env overrides.
func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "node-simulator",
		Short:        "node-simulator imitates a study-space seat sensor node",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			apiClient = clients.NewCollectorClient(cfg.ServerURL, cfg.Timeout)
			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "collector base url")
	globalFlags.StringVar(&cfg.NodeID, "node-id", cfg.NodeID, "node identifier")
	globalFlags.IntVar(&cfg.TotalSeats, "total-seats", cfg.TotalSeats, "seats watched by this node")
	globalFlags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout")

	for _, g := range commandGroups {
		cmd.AddGroup(&cobra.Group{ID: g, Title: g})
	}

	cmd.AddCommand(
		NewRunCommand(cfg),
		NewReportCommand(cfg),
		NewCalibrateCommand(cfg),
		NewConfigCommand(cfg),
		NewStatusCommand(),
	)
	return cmd
}

func NewRunCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Scan, report and poll config in a loop until interrupted",
		GroupID: gNode,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.NewLogger("node-simulator")
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sim := simulator.New(apiClient, simulator.Options{
				NodeID:     cfg.NodeID,
				TotalSeats: cfg.TotalSeats,
				Seed:       cfg.Seed,
			}, logger)
			logger.Info("reporting to collector", zap.String("server", cfg.ServerURL))
			return sim.Run(ctx, cfg.Interval)
		},
	}
	cmd.Flags().DurationVar(&cfg.Interval, "interval", cfg.Interval, "time between reports")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "random walk seed, 0 for time based")
	return cmd
}

func NewReportCommand(cfg *config.Config) *cobra.Command {
	var free int
	cmd := &cobra.Command{
		Use:     "report",
		Short:   "Send a single occupancy reading",
		GroupID: gNode,
		RunE: func(cmd *cobra.Command, _ []string) error {
			nodeID, err := apiClient.ReportOccupancy(ctxOf(cmd), clients.OccupancyReport{
				NodeID:     cfg.NodeID,
				FreeSeats:  free,
				TotalSeats: cfg.TotalSeats,
			})
			if err != nil {
				return fmt.Errorf("failed to report occupancy: %w", err)
			}
			fmt.Printf("Reported %d/%d free seats for %s.\n", free, cfg.TotalSeats, nodeID)
			return nil
		},
	}
	cmd.Flags().IntVar(&free, "free", 0, "free seats")
	cmd.Flags().IntVar(&cfg.TotalSeats, "total", cfg.TotalSeats, "total seats")
	_ = cmd.MarkFlagRequired("free")
	return cmd
}

func NewCalibrateCommand(cfg *config.Config) *cobra.Command {
	var enable bool
	cmd := &cobra.Command{
		Use:     "calibrate",
		Aliases: []string{"calibration", "cali"},
		Short:   "Request a calibration for the node on its next config poll",
		GroupID: gOperator,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flag, err := apiClient.RequestCalibration(ctxOf(cmd), cfg.NodeID, enable)
			if err != nil {
				return fmt.Errorf("failed to request calibration: %w", err)
			}
			fmt.Printf("Calibration flag for %s set to %t.\n", cfg.NodeID, flag)
			return nil
		},
	}
	cmd.Flags().BoolVar(&enable, "enable", true, "flag value to set")
	return cmd
}

func NewConfigCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "config",
		Short:   "Consume and print the pending calibration flag",
		GroupID: gNode,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flag, err := apiClient.FetchConfig(ctxOf(cmd), cfg.NodeID)
			if err != nil {
				return fmt.Errorf("failed to fetch config: %w", err)
			}
			return printJSON(map[string]bool{"calibration": flag})
		},
	}
}

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Print the latest reading of every node",
		GroupID: gOperator,
		RunE: func(cmd *cobra.Command, _ []string) error {
			readings, err := apiClient.Status(ctxOf(cmd))
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			return printJSON(readings)
		},
	}
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
