package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jobson-okosun/InkMind-API/cmd/api/commands"
)

// @title InkMind API
// @version 1.0
// @description Notes with categories, pinning, archiving and scheduled reminders

// @host localhost:8080
// @BasePath /api/v1

func main() {
	rootCmd := &cobra.Command{
		Use:           "inkmind",
		Short:         "InkMind API Server",
		Long:          `InkMind keeps notes with categories, pinning and archiving, and delivers reminders at the time set on each note.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewJobsCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
