package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"soapctl/internal/config"
	"soapctl/internal/keywords"
	"soapctl/internal/server"
	"soapctl/internal/soapui"

	"github.com/spf13/cobra"
)

var (
	serveTransport string
	serveHost      string
	servePort      int
)

// serveCmd starts the keyword server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the SoapUI keywords over MCP",
	Long: `Starts an MCP server exposing every SoapUI keyword as a tool.

Each MCP session is a separate test case with its own library instance: the
project, properties and mock service of one client never leak into another.
Call soapui_start_test_case to reset the current session, and
soapui_end_test_case to release it. Mock services still running when a
session ends or the server stops are stopped.

Transports:
  stdio            (default) for AI assistants and test frameworks that spawn soapctl
  streamable-http  for soapctl call and soapctl run --remote
  sse              for clients that only speak the HTTP+SSE transport

Examples:
  soapctl serve
  soapctl serve --transport streamable-http --port 8095`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := serverConfig(cmd)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := soapui.NewCLIEngine(appConfig.SoapUI)
	registry := keywords.NewRegistry()
	sessions := keywords.NewSessions(engine)

	s := server.New(cfg, registry, sessions, rootCmd.Version)
	if err := s.Serve(ctx); err != nil {
		return fmt.Errorf("keyword server failed: %w", err)
	}
	return nil
}

// serverConfig applies the serve flags on top of the loaded configuration.
func serverConfig(cmd *cobra.Command) config.ServerConfig {
	cfg := appConfig.Server
	if cmd.Flags().Changed("transport") {
		cfg.Transport = serveTransport
	}
	if cmd.Flags().Changed("host") {
		cfg.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	return cfg
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// addServerFlags registers the flags locating the keyword server.
func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&serveTransport, "transport", config.TransportStdio, "Transport: stdio, streamable-http or sse")
	cmd.Flags().StringVar(&serveHost, "host", "localhost", "Host of the keyword server")
	cmd.Flags().IntVar(&servePort, "port", 8095, "Port of the keyword server")
	_ = cmd.RegisterFlagCompletionFunc("transport", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{config.TransportStdio, config.TransportStreamableHTTP, config.TransportSSE}, cobra.ShellCompDirectiveDefault
	})
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServerFlags(serveCmd)
}
