// Command emailcraft runs the EmailCraft API, the scheduled-send worker and
// the maintenance tasks around them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// shutdownTimeout bounds how long resources get to close on exit.
const shutdownTimeout = 15 * time.Second

var rootCmd = &cobra.Command{
	Use:   "emailcraft",
	Short: "EmailCraft Pro email marketing service",
	Long: `EmailCraft Pro manages contacts, email templates and campaigns stored in a
headless CMS and delivers campaigns through a transactional email provider.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, workerCmd, migrateCmd, seedCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// withApp builds the application for the duration of fn.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(ctx)
	if a != nil {
		defer func() {
			cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			a.close(cctx)
		}()
	}
	if err != nil {
		return err
	}
	return fn(ctx, a)
}
