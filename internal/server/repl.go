package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-azure-devops/internal/logging"
)

// replClientName is announced to the server during the in-process handshake
const replClientName = "ado-mcp-repl"

// errExit is a sentinel error used to signal REPL exit
var errExit = errors.New("exit")

// REPL lets an operator explore and call the registered tools through an
// in-process MCP client
type REPL struct {
	server          *MCPServer
	logger          *logging.Logger
	version         string
	out             io.Writer
	client          *client.Client
	tools           []mcp.Tool
	commandHandlers map[string]commandHandler
}

// NewREPL creates a new REPL instance
func NewREPL(s *MCPServer, version string, logger *logging.Logger) *REPL {
	r := &REPL{
		server:  s,
		logger:  logger,
		version: version,
		out:     os.Stdout,
	}
	r.commandHandlers = r.buildCommandHandlers()
	return r
}

// connect starts the in-process client and performs the MCP handshake
func (r *REPL) connect(ctx context.Context) error {
	c, err := client.NewInProcessClient(r.server.Server())
	if err != nil {
		return fmt.Errorf("failed to create in-process client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("failed to start in-process client: %w", err)
	}

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    replClientName,
		Version: r.version,
	}
	if _, err := c.Initialize(ctx, req); err != nil {
		_ = c.Close()
		return fmt.Errorf("initialization failed: %w", err)
	}

	result, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		_ = c.Close()
		return fmt.Errorf("failed to list tools: %w", err)
	}

	r.client = c
	r.tools = result.Tools
	return nil
}

// Run starts the REPL
func (r *REPL) Run(ctx context.Context) error {
	if err := r.connect(ctx); err != nil {
		return err
	}
	defer func() { _ = r.client.Close() }()

	config := &readline.Config{
		Prompt:          "ADO> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".mcp_azure_devops_history"),
		AutoComplete:    r.createCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	}

	rl, err := readline.NewEx(config)
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r.logger.Info("REPL started with %d tools. Type 'help' for available commands. Use TAB for completion.", len(r.tools))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("REPL shutting down...")
			return nil
		default:
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			r.logger.Info("Goodbye!")
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if err := r.executeCommand(ctx, input); err != nil {
			if errors.Is(err, errExit) {
				r.logger.Info("Goodbye!")
				return nil
			}
			r.logger.Error("Error: %v", err)
		}
	}
}

// createCompleter creates the tab completion configuration
func (r *REPL) createCompleter() *readline.PrefixCompleter {
	toolItems := make([]readline.PrefixCompleterInterface, len(r.tools))
	for i, t := range r.tools {
		toolItems[i] = readline.PcItem(t.Name)
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("?"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
		readline.PcItem("list"),
		readline.PcItem("whoami"),
		readline.PcItem("describe", toolItems...),
		readline.PcItem("call", toolItems...),
	)
}

// filterInput filters input characters for readline
func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// commandHandler defines a REPL command with its handler and argument requirements
type commandHandler struct {
	minArgs int
	usage   string
	handler func(ctx context.Context, parts []string) error
}

// buildCommandHandlers creates the map of command handlers
func (r *REPL) buildCommandHandlers() map[string]commandHandler {
	return map[string]commandHandler{
		"help": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return r.showHelp()
		}},
		"?": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return r.showHelp()
		}},
		"exit": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return errExit
		}},
		"quit": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return errExit
		}},
		"list": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return r.handleList()
		}},
		"whoami": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			fmt.Fprintln(r.out, r.server.userAgent.Current())
			return nil
		}},
		"describe": {
			minArgs: 2,
			usage:   "usage: describe <tool-name>",
			handler: func(ctx context.Context, parts []string) error {
				return r.handleDescribe(parts[1])
			},
		},
		"call": {
			minArgs: 2,
			usage:   "usage: call <tool-name> [json-args]",
			handler: func(ctx context.Context, parts []string) error {
				return r.handleCall(ctx, parts[1], strings.Join(parts[2:], " "))
			},
		},
	}
}

// executeCommand parses and executes a command
func (r *REPL) executeCommand(ctx context.Context, input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	command := strings.ToLower(parts[0])

	handler, exists := r.commandHandlers[command]
	if !exists {
		return fmt.Errorf("unknown command: %s. Type 'help' for available commands", command)
	}

	if len(parts) < handler.minArgs {
		return errors.New(handler.usage)
	}

	return handler.handler(ctx, parts)
}

// showHelp displays available commands
func (r *REPL) showHelp() error {
	fmt.Fprintln(r.out, "Available commands:")
	fmt.Fprintln(r.out, "  help, ?                      - Show this help message")
	fmt.Fprintln(r.out, "  list                         - List the registered tools")
	fmt.Fprintln(r.out, "  describe <tool>              - Show a tool's input schema")
	fmt.Fprintln(r.out, "  call <tool> {json}           - Execute a tool with JSON arguments")
	fmt.Fprintln(r.out, "  whoami                       - Show the user agent sent to Azure DevOps")
	fmt.Fprintln(r.out, "  exit, quit                   - Exit the REPL")
	return nil
}

func (r *REPL) handleList() error {
	if len(r.tools) == 0 {
		fmt.Fprintln(r.out, "No tools registered.")
		return nil
	}
	for _, t := range r.tools {
		fmt.Fprintf(r.out, "  %-36s %s\n", t.Name, t.Description)
	}
	return nil
}

func (r *REPL) findTool(name string) (mcp.Tool, bool) {
	for _, t := range r.tools {
		if t.Name == name {
			return t, true
		}
	}
	return mcp.Tool{}, false
}

func (r *REPL) handleDescribe(name string) error {
	t, ok := r.findTool(name)
	if !ok {
		return fmt.Errorf("tool not found: %s", name)
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tool: %w", err)
	}
	fmt.Fprintln(r.out, string(data))
	return nil
}

func (r *REPL) handleCall(ctx context.Context, name, rawArgs string) error {
	if _, ok := r.findTool(name); !ok {
		return fmt.Errorf("tool not found: %s", name)
	}

	args := map[string]interface{}{}
	if strings.TrimSpace(rawArgs) != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return fmt.Errorf("invalid JSON arguments: %w", err)
		}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := r.client.CallTool(ctx, req)
	if err != nil {
		return fmt.Errorf("tool call failed: %w", err)
	}

	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			fmt.Fprintln(r.out, text.Text)
		}
	}
	if result.IsError {
		return fmt.Errorf("tool %s reported an error", name)
	}
	return nil
}
