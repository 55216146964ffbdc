// Command phantommail-mcp serves PhantomMail's send_fake_email tool over MCP
// stdio, so assistants can fill test inboxes on request.
//
// Configuration is the same as for the phantommail command; the config file
// may be named with PHANTOMMAIL_CONFIG. Logs go to stderr since stdout
// carries the protocol.
//
// Example client configuration:
//
//	{
//	    "mcpServers": {
//	        "phantommail": {
//	            "command": "phantommail-mcp",
//	            "env": {"SENDER_EMAIL": "phantom@example.com"}
//	        }
//	    }
//	}
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spetersoncode/phantommail/internal/app"
	"github.com/spetersoncode/phantommail/internal/config"
	"github.com/spetersoncode/phantommail/mcp"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "phantommail-mcp:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.New(), os.Getenv("PHANTOMMAIL_CONFIG"))
	if err != nil {
		return err
	}
	logger := cfg.Log.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.WithLogger(logger), app.WithOutput(io.Discard))
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("serving mcp over stdio", "version", version, "model", a.Model.String(), "transport", a.Sender.Name())
	return mcp.ServeStdio(a,
		mcp.WithName("phantommail"),
		mcp.WithVersion(version),
		mcp.WithLogger(logger))
}
