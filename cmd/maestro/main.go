// Maestro: task-orchestration and context-persistence MCP server.
//
// Maestro accepts high-level task requests, decides which specialized
// delegates must act, executes a dependency-ordered plan, and durably
// remembers sessions, context, and the rationale behind significant
// decisions so work can resume across restarts.
//
// Usage:
//
//	maestro serve      # Start the MCP server (stdio transport)
//	maestro version    # Print the build version
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/maestro-mcp/maestro/internal/config"
	maestroserver "github.com/maestro-mcp/maestro/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "maestro",
	Short: "Task orchestration and context persistence over MCP",
	Long: "Maestro coordinates specialized delegate workers: it analyzes a task,\n" +
		"builds a dependency-ordered plan, executes it with fan-out for\n" +
		"independent steps, and remembers sessions, context, and decisions\n" +
		"across restarts.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio transport)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("maestro v%s\n", maestroserver.Version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	s, cleanup, err := maestroserver.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt. The stdio server exits when its
	// transport closes; the signal handler makes Ctrl-C run cleanup too.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cleanup()
		os.Exit(0)
	}()

	return server.ServeStdio(s)
}
