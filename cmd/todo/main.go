package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/cupid-code/internal/logger"
	"github.com/benvon/cupid-code/internal/tasklist"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var debug bool
	var timezone string

	rootCmd := &cobra.Command{
		Use:   "cupid-todo",
		Short: "Interactive Cupid Code to-do list",
		Long:  "Keeps an in-memory to-do list for this terminal session. Tasks are gone when you quit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.NewConsoleLogger(debug)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync(log) }()

			clock := tasklist.SystemClock{}
			if timezone != "" {
				loc, err := time.LoadLocation(timezone)
				if err != nil {
					return fmt.Errorf("invalid timezone %q: %w", timezone, err)
				}
				clock.Location = loc
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store := tasklist.New(tasklist.WithClock(clock))
			log.Debug("session_opened", zap.String("timezone", timezone))

			return newConsole(store, cmd.OutOrStdout(), log).Run(ctx, cmd.InOrStdin())
		},
	}
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging on stderr")
	rootCmd.Flags().StringVar(&timezone, "timezone", os.Getenv("TASK_TIMEZONE"), "IANA time zone for task timestamps (default local)")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
