package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/batch"
)

// Tool names.
const (
	ToolSendFakeEmail  = "send_fake_email"
	ToolListCategories = "list_categories"
)

// DefaultMaxCount caps the emails a single tool call may send.
const DefaultMaxCount = 20

// BatchRunner sends a batch. *app.App implements it.
type BatchRunner interface {
	Run(ctx context.Context, sel batch.Selection) (*batch.Summary, error)
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name     string
	version  string
	maxCount int
	logger   *slog.Logger
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// WithMaxCount caps count per call.
func WithMaxCount(n int) ServerOption {
	return func(c *serverConfig) {
		c.maxCount = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(c *serverConfig) {
		c.logger = l
	}
}

// NewServer creates an MCP server whose tools generate and send fake emails
// through runner.
//
// Example:
//
//	s := mcp.NewServer(app, mcp.WithName("phantommail"))
//	server.ServeStdio(s)
func NewServer(runner BatchRunner, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:     "phantommail",
		version:  "1.0.0",
		maxCount: DefaultMaxCount,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
	)

	h := &handlers{
		runner:   runner,
		maxCount: cfg.maxCount,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   cfg.logger.With("component", "mcp"),
	}
	s.AddTool(sendTool(cfg.maxCount), h.send)
	s.AddTool(mcp.NewTool(ToolListCategories,
		mcp.WithDescription("List the fake email types send_fake_email accepts."),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.listCategories)
	return s
}

func categoryLabels() []string {
	labels := []string{phantommail.AllRandom}
	for _, c := range phantommail.Categories() {
		labels = append(labels, c.String())
	}
	return labels
}

func sendTool(maxCount int) mcp.Tool {
	return mcp.NewTool(ToolSendFakeEmail,
		mcp.WithDescription("Generate realistic fake logistics emails with a language model and send them to the given recipients."),
		mcp.WithString("category",
			mcp.Description("Email type, or all_random for a random type per email."),
			mcp.Enum(categoryLabels()...),
			mcp.DefaultString(phantommail.AllRandom)),
		mcp.WithArray("recipients",
			mcp.Required(),
			mcp.Description("Recipient email addresses."),
			mcp.MinItems(1),
			mcp.WithStringItems()),
		mcp.WithNumber("count",
			mcp.Description("Number of emails to send."),
			mcp.Min(1),
			mcp.Max(float64(maxCount)),
			mcp.DefaultNumber(1)),
		mcp.WithDestructiveHintAnnotation(false),
	)
}

// sendArgs are the arguments of send_fake_email.
type sendArgs struct {
	Category   string   `json:"category"`
	Recipients []string `json:"recipients" validate:"required,min=1,dive,required,email"`
	Count      int      `json:"count" validate:"gte=1"`
}

// SendResult is the structured result of send_fake_email.
type SendResult struct {
	Total        int      `json:"total"`
	Sent         int      `json:"sent"`
	Failed       int      `json:"failed"`
	Errors       []string `json:"errors,omitempty"`
	InputTokens  int      `json:"input_tokens"`
	OutputTokens int      `json:"output_tokens"`
	Cost         float64  `json:"estimated_cost_usd"`
}

type handlers struct {
	runner   BatchRunner
	maxCount int
	validate *validator.Validate
	logger   *slog.Logger
}

func (h *handlers) send(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := sendArgs{Category: phantommail.AllRandom, Count: 1}
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	if err := h.check(args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sel, err := batch.ParseSelection(args.Category, args.Count, args.Recipients)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	h.logger.Info("tool call", "tool", ToolSendFakeEmail, "category", sel.Label(), "count", sel.Count, "recipients", len(sel.Recipients))
	sum, err := h.runner.Run(ctx, sel)
	if sum == nil {
		if err == nil {
			err = errors.New("no summary")
		}
		return mcp.NewToolResultErrorFromErr("send failed", err), nil
	}

	res := SendResult{
		Total:        sum.Total,
		Sent:         sum.Success,
		Failed:       sum.Failed,
		InputTokens:  sum.Usage.InputTokens,
		OutputTokens: sum.Usage.OutputTokens,
		Cost:         sum.Cost,
	}
	for _, f := range sum.Errors {
		res.Errors = append(res.Errors, f.String())
	}
	text := fmt.Sprintf("Sent %d of %d email(s) to %s.", res.Sent, res.Total, strings.Join(sel.Recipients, ", "))
	if err != nil {
		text += " Stopped early: " + err.Error()
	}
	if res.Failed > 0 {
		text += "\nFailures:\n  - " + strings.Join(res.Errors, "\n  - ")
	}

	out := mcp.NewToolResultStructured(res, text)
	out.IsError = res.Sent == 0
	return out, nil
}

func (h *handlers) check(args sendArgs) error {
	if err := h.validate.Struct(args); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if args.Count > h.maxCount {
		return fmt.Errorf("count %d exceeds the limit of %d", args.Count, h.maxCount)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return fmt.Sprintf("invalid email address %q", fe.Value())
	case "required", "min":
		if fe.Field() == "Recipients" {
			return "at least one recipient is required"
		}
		return fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
	case "gte":
		return fmt.Sprintf("%s must be at least %s", strings.ToLower(fe.Field()), fe.Param())
	}
	return fe.Error()
}

func (h *handlers) listCategories(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", phantommail.AllRandom, phantommail.Unspecified.Description())
	for _, c := range phantommail.Categories() {
		fmt.Fprintf(&b, "%s: %s\n", c, c.Description())
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ServeStdio serves the PhantomMail tools over stdin/stdout, the standard
// transport for MCP servers run as subprocesses.
func ServeStdio(runner BatchRunner, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(runner, opts...))
}
