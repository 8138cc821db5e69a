package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/giantswarm/mcp-azure-devops/internal/auth"
	"github.com/giantswarm/mcp-azure-devops/internal/config"
	"github.com/giantswarm/mcp-azure-devops/internal/devops"
	"github.com/giantswarm/mcp-azure-devops/internal/domains"
	"github.com/giantswarm/mcp-azure-devops/internal/logging"
	"github.com/giantswarm/mcp-azure-devops/internal/server"
	"github.com/giantswarm/mcp-azure-devops/internal/tools"
	"github.com/giantswarm/mcp-azure-devops/internal/useragent"
)

var (
	version string

	organization   string
	serverURL      string
	authentication string
	tenant         string
	token          string
	domainNames    []string
	transport      string
	listenAddr     string
	retryMax       int
	timeout        time.Duration
	configFile     string
	envFile        string
	verbose        bool
	noColor        bool
	jsonRPC        bool
	repl           bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mcp-azure-devops [organization]",
	Short: "MCP server for Azure DevOps",
	Long: `mcp-azure-devops exposes the Azure DevOps REST API of one organization to an
agent via MCP (Model Context Protocol).

Authentication (--authentication):
- interactive: browser login (default outside GitHub Codespaces)
- azcli: reuse the Azure CLI login (default inside GitHub Codespaces)
- env: service principal from AZURE_TENANT_ID, AZURE_CLIENT_ID, ...
- envvar: raw token from ADO_MCP_AUTH_TOKEN, read on every call
- pat: personal access token from --token or ADO_MCP_PAT

Only the tools of the enabled domains (--domains) are registered. Use "all"
to enable every domain.

The server speaks stdio by default. Use --transport streamable-http to serve
on --listen-addr at /mcp, or --repl to explore the tools interactively.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServer,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// SetVersion sets the version for the application
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.Flags().StringVarP(&organization, "organization", "o", "", "Azure DevOps organization name (or first argument)")
	rootCmd.Flags().StringVar(&serverURL, "server-url", "", "Organization URL override (default https://dev.azure.com/<organization>)")
	rootCmd.Flags().StringVarP(&authentication, "authentication", "a", "", "Authentication strategy: "+strategyNames()+" (default azcli in Codespaces, interactive otherwise)")
	rootCmd.Flags().StringVarP(&tenant, "tenant", "t", "", "Azure tenant ID for interactive and azcli (looked up from the organization if empty)")
	rootCmd.Flags().StringVar(&token, "token", "", "Personal access token for --authentication pat (prefer "+config.PATEnvVar+")")
	rootCmd.Flags().StringSliceVarP(&domainNames, "domains", "d", []string{domains.All}, "Domains to enable: all or "+knownDomainNames())
	rootCmd.Flags().StringVar(&transport, "transport", config.TransportStdio, "Server transport (stdio, streamable-http)")
	rootCmd.Flags().StringVar(&listenAddr, "listen-addr", config.DefaultListenAddr, "Listen address for streamable-http server (path is fixed to /mcp)")
	rootCmd.Flags().IntVar(&retryMax, "retry-max", config.DefaultRetryMax, "Retries for throttled or failed Azure DevOps calls")
	rootCmd.Flags().DurationVar(&timeout, "timeout", config.DefaultTimeout, "Timeout for a single Azure DevOps call")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to a YAML configuration file")
	rootCmd.Flags().StringVar(&envFile, "env-file", "", "Path to a .env file (default ./.env if present)")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.Flags().BoolVar(&jsonRPC, "json-rpc", false, "Enable full JSON-RPC message logging in REPL mode")
	rootCmd.Flags().BoolVar(&repl, "repl", false, "Start interactive REPL mode")

	rootCmd.AddCommand(newSelfUpdateCmd())

	rootCmd.MarkFlagsMutuallyExclusive("repl", "transport")
}

func strategyNames() string {
	names := make([]string, 0, len(auth.Strategies()))
	for _, s := range auth.Strategies() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func knownDomainNames() string {
	names := make([]string, 0, len(domains.Known()))
	for _, d := range domains.Known() {
		names = append(names, string(d))
	}
	return strings.Join(names, ", ")
}

// setupSignalHandler sets up graceful shutdown on interrupt signals
func setupSignalHandler(cancel context.CancelFunc, logger *logging.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()
}

// buildConfig merges the config file, the environment and the CLI flags.
// Flags only override file values when explicitly set.
func buildConfig(cmd *cobra.Command, args []string, logger *logging.Logger) (config.Config, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return config.Config{}, err
	}

	cfg := config.Config{}
	if configFile != "" {
		fileCfg, err := config.LoadFile(configFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg = *fileCfg
		logger.InfoVerbose("Loaded configuration from %s", configFile)
	}

	flags := cmd.Flags()
	override := func(name string, current string) bool {
		return flags.Changed(name) || current == ""
	}

	if len(args) == 1 {
		if flags.Changed("organization") && organization != args[0] {
			return config.Config{}, fmt.Errorf("organization given twice: %q and %q", args[0], organization)
		}
		cfg.Organization = args[0]
	} else if override("organization", cfg.Organization) {
		cfg.Organization = organization
	}
	if override("server-url", cfg.ServerURL) {
		cfg.ServerURL = serverURL
	}
	if override("authentication", cfg.Authentication) {
		cfg.Authentication = authentication
	}
	if override("tenant", cfg.Tenant) {
		cfg.Tenant = tenant
	}
	if override("transport", cfg.Transport) {
		cfg.Transport = transport
	}
	if override("listen-addr", cfg.ListenAddr) {
		cfg.ListenAddr = listenAddr
	}
	if flags.Changed("domains") || len(cfg.Domains) == 0 {
		cfg.Domains = domainNames
	}
	if flags.Changed("retry-max") || configFile == "" {
		cfg.RetryMax = retryMax
	}
	if flags.Changed("timeout") || cfg.Timeout == 0 {
		cfg.Timeout = timeout
	}

	// Security warning: Check if the token was passed via CLI flag
	if token != "" && flags.Changed("token") {
		logger.Warning("Security Warning: Token passed via CLI flag is visible in process listings")
		logger.Info("Consider using environment variables instead: export %s=\"...\"", config.PATEnvVar)
	}
	cfg.Token = token

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildServer wires the domain filter, the authenticator, the user agent
// composer and the client factory into an MCP server.
func buildServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*server.MCPServer, error) {
	enabled, err := domains.Resolve(cfg.Domains)
	if err != nil {
		return nil, err
	}

	strategy, err := cfg.Strategy()
	if err != nil {
		return nil, err
	}

	tenantID := cfg.Tenant
	if strategy.UsesTenant() {
		tenantID = auth.NewTenantLookup(logger).Resolve(ctx, cfg.Organization, cfg.Tenant)
	}

	tokens, err := auth.NewTokenProvider(strategy, tenantID, cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	userAgent := useragent.New(version)

	factory, err := devops.NewClientFactory(devops.FactoryConfig{
		OrgURL:    cfg.OrgURL(),
		Strategy:  strategy,
		Tokens:    tokens,
		UserAgent: userAgent,
		Logger:    logger,
		Timeout:   cfg.Timeout,
		RetryMax:  cfg.RetryMax,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client factory: %w", err)
	}

	mcpServer, err := server.NewMCPServer(server.Config{
		Version:   version,
		Transport: cfg.Transport,
		Domains:   enabled,
		Registrar: tools.NewRegistrar(factory, logger),
		UserAgent: userAgent,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}

	logger.Info("Using %s authentication for %s", strategy, factory.OrgURL())

	return mcpServer, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	logger := logging.NewLogger(verbose, !noColor, jsonRPC)
	setupSignalHandler(cancel, logger)

	cfg, err := buildConfig(cmd, args, logger)
	if err != nil {
		return err
	}

	mcpServer, err := buildServer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if repl {
		replHandler := server.NewREPL(mcpServer, version, logger)
		if err := replHandler.Run(ctx); err != nil {
			return fmt.Errorf("REPL error: %w", err)
		}
		return nil
	}

	logger.Info("Starting mcp-azure-devops MCP server (transport: %s)...", cfg.Transport)
	if cfg.Transport == config.TransportStreamableHTTP {
		addr := cfg.ListenAddr
		if !strings.Contains(addr, ":") {
			addr = ":" + addr
		}
		logger.Info("Listening on %s%s", addr, "/mcp")
	}

	if err := mcpServer.Start(ctx, cfg.ListenAddr); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
