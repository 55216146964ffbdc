package branch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/client"
	"github.com/spetersoncode/phantommail/faker"
	"github.com/spetersoncode/phantommail/llm"
	"github.com/spetersoncode/phantommail/render"
	"github.com/spetersoncode/phantommail/templates"
)

// Attachment filenames.
const (
	OrderFilename       = "transport_order.pdf"
	DeclarationFilename = "customs_declaration.pdf"
)

// ErrMissingAttachment is returned when the template calls for an
// attachment but the model reply has none.
var ErrMissingAttachment = errors.New("model reply has no attachment html")

// Generator produces the content of one email category.
type Generator interface {
	Category() phantommail.Category
	Generate(ctx context.Context, state phantommail.RunState) (phantommail.GeneratedContent, error)
}

// Deps are the collaborators shared by all generators.
type Deps struct {
	Model     llm.ChatProvider
	Renderer  render.Renderer
	Templates *templates.Store
	Producers faker.Producers

	// OrderTemplate defaults to FixedTemplate(6); DeclarationTemplate to
	// UniformTemplate(nil).
	OrderTemplate       TemplatePolicy
	DeclarationTemplate TemplatePolicy

	// ChatOptions are appended to every model request.
	ChatOptions []llm.Option

	Logger *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.OrderTemplate == nil {
		d.OrderTemplate = FixedTemplate(defaultOrderTemplate)
	}
	if d.DeclarationTemplate == nil {
		d.DeclarationTemplate = UniformTemplate(nil)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

func (d Deps) validate(needTemplates bool) error {
	var errs []error
	if d.Model == nil {
		errs = append(errs, errors.New("model is required"))
	}
	if needTemplates {
		if d.Templates == nil {
			errs = append(errs, errors.New("template store is required"))
		}
		if d.Renderer == nil {
			errs = append(errs, errors.New("renderer is required"))
		}
	}
	return errors.Join(errs...)
}

// request is a prompt ready to send, plus what to do with the reply.
type request struct {
	messages []llm.Message

	// filename is set when the reply's attachment must be rendered.
	filename string
	template int
}

// generator is the shared skeleton behind every category.
type generator[T any] struct {
	category phantommail.Category
	produce  faker.Producer[T]
	build    func(T) (request, error)
	deps     Deps
	logger   *slog.Logger
}

func newGenerator[T any](c phantommail.Category, produce faker.Producer[T], deps Deps, build func(T) (request, error)) *generator[T] {
	return &generator[T]{
		category: c,
		produce:  produce,
		build:    build,
		deps:     deps,
		logger:   deps.Logger.With("component", "branch", "category", c.String()),
	}
}

func (g *generator[T]) Category() phantommail.Category { return g.category }

func (g *generator[T]) Generate(ctx context.Context, _ phantommail.RunState) (phantommail.GeneratedContent, error) {
	if g.produce == nil {
		return phantommail.GeneratedContent{}, g.fail(errors.New("no data producer"))
	}
	data, err := g.produce()
	if err != nil {
		return phantommail.GeneratedContent{}, g.fail(fmt.Errorf("produce data: %w", err))
	}
	g.logger.Debug("generated fake data", "data", fmt.Sprintf("%+v", data))

	req, err := g.build(data)
	if err != nil {
		return phantommail.GeneratedContent{}, g.fail(err)
	}

	opts := append([]llm.Option{llm.WithResponseSchema(llm.EmailSchema())}, g.deps.ChatOptions...)
	email, usage, err := client.ChatTyped[llm.Email](ctx, g.deps.Model, req.messages, opts...)
	if err != nil {
		return phantommail.GeneratedContent{}, g.fail(err)
	}
	g.logger.Debug("model reply", "subject", email.Subject, "attachment", email.HasAttachment())

	out := phantommail.GeneratedContent{
		Subject:  email.Subject,
		BodyHTML: email.BodyHTML,
		Usage:    usage,
	}
	if req.filename != "" {
		if !email.HasAttachment() {
			return phantommail.GeneratedContent{}, g.fail(ErrMissingAttachment)
		}
		out.AttachmentHTML = email.AttachmentHTML
		if g.deps.Renderer == nil {
			return phantommail.GeneratedContent{}, &phantommail.RenderError{Category: g.category, Err: errors.New("no renderer")}
		}
		att, err := g.deps.Renderer.Render(ctx, email.AttachmentHTML)
		if err != nil {
			return phantommail.GeneratedContent{}, &phantommail.RenderError{Category: g.category, Err: err}
		}
		att.Filename = req.filename
		if att.ContentType == "" {
			att.ContentType = render.ContentTypePDF
		}
		out.Attachments = []phantommail.Attachment{att}
	}

	g.logger.Info("email generated",
		"subject", out.Subject,
		"template", req.template,
		"attachments", len(out.Attachments),
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens)
	return out, nil
}

func (g *generator[T]) fail(err error) error {
	return &phantommail.GenerationError{Category: g.category, Err: err}
}

// All builds one generator per category.
func All(deps Deps) (map[phantommail.Category]Generator, error) {
	deps = deps.withDefaults()
	if err := deps.validate(true); err != nil {
		return nil, fmt.Errorf("branch: %w", err)
	}
	p := deps.Producers
	return map[phantommail.Category]Generator{
		phantommail.Order:        Order(p.Order, deps),
		phantommail.Declaration:  Declaration(p.Declaration, deps),
		phantommail.Question:     Question(p.Question, deps),
		phantommail.Complaint:    Complaint(p.Complaint, deps),
		phantommail.PriceRequest: PriceRequest(p.PriceRequest, deps),
		phantommail.WaitingCosts: WaitingCosts(p.WaitingCosts, deps),
		phantommail.UpdateOrder:  UpdateOrder(p.UpdateOrder, deps),
		phantommail.Random:       Random(p.Random, deps),
	}, nil
}
