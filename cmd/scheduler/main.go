// Command scheduler runs the fair-share CPU scheduler simulator: it
// listens on a local-domain socket, applies incoming event batches to an
// in-memory Scheduler, and emits one schedule per tick (§6).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ja7ad/fairsched/internal/config"
	"github.com/ja7ad/fairsched/internal/server"
	"github.com/ja7ad/fairsched/pkg/log"
)

type opts struct {
	socket     string
	cpus       int
	quanta     int64
	metadata   bool
	configPath string
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "scheduler",
		Short: "Deterministic fair-share CPU scheduler simulator",
		Long: `scheduler listens on a local-domain socket for time-stamped event
batches (task/cgroup lifecycle, block/unblock, yield, burst) and emits a
per-CPU schedule decision for each tick, approximating Linux CFS
semantics: virtual-runtime ordering, nice-weighted fair share, group
quota/period throttling, and CPU affinity/masks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, o)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&o.socket, "socket", "s", "event.socket", "unix domain socket path")
	flags.IntVarP(&o.cpus, "cpus", "c", 4, "number of CPUs (1-128)")
	flags.Int64VarP(&o.quanta, "quanta", "q", 1, "tick length in simulated milliseconds")
	flags.BoolVarP(&o.metadata, "metadata", "m", false, "include tick metadata in output")
	flags.StringVar(&o.configPath, "config", "", "optional YAML config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, o opts) error {
	ctx := cmd.Context()
	file, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	merged := config.Merge(file, o.socket, flags.Changed("socket"),
		o.cpus, flags.Changed("cpus"), o.quanta, flags.Changed("quanta"),
		o.metadata, flags.Changed("metadata"))

	if merged.CPUs <= 0 || merged.CPUs > 128 {
		return fmt.Errorf("invalid cpu count (must be 1-128): %d", merged.CPUs)
	}
	if merged.Quanta <= 0 {
		return fmt.Errorf("invalid quanta (must be > 0): %d", merged.Quanta)
	}

	logger := log.New(merged.Socket, merged.CPUs, merged.Quanta, merged.Metadata)
	logger.Info("scheduler starting")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		SocketPath: merged.Socket,
		CPUs:       merged.CPUs,
		Quanta:     merged.Quanta,
		Metadata:   merged.Metadata,
	}, logger)

	if err := srv.Run(ctx); err != nil {
		logger.WithError(err).Error("scheduler exited")
		return err
	}
	logger.Info("scheduler shut down cleanly")
	return nil
}
