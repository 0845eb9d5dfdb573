package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/storacha/sizetracker/internal/scheduler"
	"github.com/storacha/sizetracker/internal/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sizetracker HTTP service",
	Args:  cobra.NoArgs,
	RunE:  startService,
}

func init() {
	startCmd.Flags().Int(
		"port",
		8080,
		"Port to listen on",
	)
	cobra.CheckErr(viper.BindPFlag("port", startCmd.Flags().Lookup("port")))

	startCmd.Flags().Int(
		"plot-interval",
		0,
		"Interval in seconds between scheduled plot renders, 0 disables them",
	)
	cobra.CheckErr(viper.BindPFlag("plot_interval", startCmd.Flags().Lookup("plot-interval")))

	startCmd.Flags().String(
		"plot-object-key",
		"plot.png",
		"Key the plot image is stored under",
	)
	cobra.CheckErr(viper.BindPFlag("plot_object_key", startCmd.Flags().Lookup("plot-object-key")))
}

func startService(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	c, err := buildComponents(ctx)
	if err != nil {
		return err
	}

	// Create server
	srv, err := server.New(c.sampler, c.generator,
		server.WithMetricsEndpoint(c.cfg.MetricsAuthToken),
		server.WithAdminCreds(c.cfg.AdminUser, c.cfg.AdminPassword),
	)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	var sched *scheduler.Scheduler
	if interval := c.cfg.PlotIntervalDuration(); interval > 0 {
		sched, err = scheduler.New(c.generator, interval)
		if err != nil {
			return fmt.Errorf("creating scheduler: %w", err)
		}

		// Start scheduler in a goroutine
		go sched.Start(ctx)
	} else {
		log.Info("Scheduled plot rendering is disabled")
	}

	stopScheduler := func() {
		if sched != nil {
			sched.Stop()
		}
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on port %d", c.cfg.Port)
		errCh <- srv.ListenAndServe(fmt.Sprintf(":%d", c.cfg.Port))
	}()

	select {
	case err := <-errCh:
		log.Errorf("Server error: %v", err)
		stopScheduler()
		return err
	case sig := <-sigCh:
		log.Infof("Received signal %v, shutting down gracefully", sig)
		stopScheduler()
		cancel()
		return nil
	}
}
