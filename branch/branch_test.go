package branch

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/client"
	"github.com/spetersoncode/phantommail/faker"
	"github.com/spetersoncode/phantommail/llm"
	"github.com/spetersoncode/phantommail/render"
	"github.com/spetersoncode/phantommail/templates"
)

// fakeModel replies with a fixed llm.Email and records each request.
type fakeModel struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	messages []llm.Message
	options  *llm.Options
}

func replyWith(e llm.Email) *fakeModel {
	b, _ := json.Marshal(e)
	return &fakeModel{reply: string(b)}
}

func (m *fakeModel) Chat(_ context.Context, msgs []llm.Message, opts ...llm.Option) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.messages = msgs
	m.options = llm.ApplyOptions(opts...)
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Response{Content: m.reply, Usage: llm.Usage{InputTokens: 120, OutputTokens: 80}}, nil
}

func (m *fakeModel) prompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages[len(m.messages)-1].Content
}

// fakeRenderer returns a one-byte "pdf" and records the html it got.
type fakeRenderer struct {
	err   error
	calls int
	html  string
}

func (r *fakeRenderer) Render(_ context.Context, html string) (phantommail.Attachment, error) {
	r.calls++
	r.html = html
	if r.err != nil {
		return phantommail.Attachment{}, r.err
	}
	return phantommail.Attachment{Filename: "document.pdf", Data: []byte("%PDF")}, nil
}

var withAttachment = llm.Email{
	Subject:        "Transport order 2291",
	BodyHTML:       "<p>Please see attached.</p>",
	AttachmentHTML: "<html><body>Order 2291</body></html>",
}

var withoutAttachment = llm.Email{
	Subject:        "Quick question",
	BodyHTML:       "<p>Hello</p>",
	AttachmentHTML: llm.NoAttachment,
}

func testDeps(model llm.ChatProvider, r render.Renderer) Deps {
	return Deps{
		Model:     model,
		Renderer:  r,
		Templates: templates.MustNew(),
		Producers: faker.New(42).Producers(),
	}
}

func state(c phantommail.Category) phantommail.RunState {
	return phantommail.NewRunState(c, "ops@vectrans.example")
}

func TestAll(t *testing.T) {
	gens, err := All(testDeps(replyWith(withoutAttachment), &fakeRenderer{}))
	require.NoError(t, err)
	require.Len(t, gens, len(phantommail.Categories()))
	for _, c := range phantommail.Categories() {
		g, ok := gens[c]
		require.True(t, ok, c.String())
		assert.Equal(t, c, g.Category())
	}
}

func TestAll_MissingDeps(t *testing.T) {
	_, err := All(Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model is required")
	assert.Contains(t, err.Error(), "template store is required")
	assert.Contains(t, err.Error(), "renderer is required")
}

func TestOrder_DefaultTemplateHasNoAttachment(t *testing.T) {
	model := replyWith(withoutAttachment)
	r := &fakeRenderer{}
	deps := testDeps(model, r)

	out, err := Order(deps.Producers.Order, deps).Generate(context.Background(), state(phantommail.Order))
	require.NoError(t, err)

	assert.Equal(t, "Quick question", out.Subject)
	assert.Empty(t, out.Attachments)
	assert.Empty(t, out.AttachmentHTML)
	assert.Zero(t, r.calls)
	assert.Equal(t, llm.Usage{InputTokens: 120, OutputTokens: 80}, out.Usage)

	p := model.prompt()
	assert.Contains(t, p, "Client details (for the email signature)")
	assert.NotContains(t, p, "## Pickup address")
	assert.Contains(t, p, "Kipdorpbrug 1")
	assert.Contains(t, p, "<attachment_html>\nno attachment\n</attachment_html>")
	require.Len(t, model.messages, 1)
	assert.Equal(t, llm.RoleUser, model.messages[0].Role)
}

func TestOrder_TemplateWithAttachment(t *testing.T) {
	model := replyWith(withAttachment)
	r := &fakeRenderer{}
	deps := testDeps(model, r)
	deps.OrderTemplate = FixedTemplate(3)

	out, err := Order(deps.Producers.Order, deps).Generate(context.Background(), state(phantommail.Order))
	require.NoError(t, err)

	require.Len(t, out.Attachments, 1)
	assert.Equal(t, OrderFilename, out.Attachments[0].Filename)
	assert.Equal(t, render.ContentTypePDF, out.Attachments[0].ContentType)
	assert.Equal(t, withAttachment.AttachmentHTML, out.AttachmentHTML)
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, withAttachment.AttachmentHTML, r.html)

	p := model.prompt()
	assert.Contains(t, p, "## Sender details:")
	assert.Contains(t, p, "## Intermediate Loading stops:")
	assert.Contains(t, p, "Replace ALL references in BOTH the email HTML and attachment HTML templates")
	assert.NotContains(t, p, "no attachment\n</attachment_html>")
}

func TestOrder_MissingAttachmentInReply(t *testing.T) {
	r := &fakeRenderer{}
	deps := testDeps(replyWith(withoutAttachment), r)
	deps.OrderTemplate = FixedTemplate(2)

	_, err := Order(deps.Producers.Order, deps).Generate(context.Background(), state(phantommail.Order))

	var gerr *phantommail.GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, phantommail.Order, gerr.Category)
	assert.ErrorIs(t, err, ErrMissingAttachment)
	assert.Zero(t, r.calls)
}

func TestOrder_UnknownTemplate(t *testing.T) {
	deps := testDeps(replyWith(withoutAttachment), &fakeRenderer{})
	deps.OrderTemplate = FixedTemplate(9)

	_, err := Order(deps.Producers.Order, deps).Generate(context.Background(), state(phantommail.Order))
	assert.ErrorIs(t, err, templates.ErrNotFound)
	assert.IsType(t, &phantommail.GenerationError{}, err)
}

func TestDeclaration(t *testing.T) {
	for _, idx := range []int{1, 2} {
		model := replyWith(withAttachment)
		r := &fakeRenderer{}
		deps := testDeps(model, r)
		deps.DeclarationTemplate = FixedTemplate(idx)

		out, err := Declaration(deps.Producers.Declaration, deps).Generate(context.Background(), state(phantommail.Declaration))
		require.NoError(t, err)
		require.Len(t, out.Attachments, 1)
		assert.Equal(t, DeclarationFilename, out.Attachments[0].Filename)

		p := model.prompt()
		assert.Contains(t, p, "VAT: BE 1234.567.89")
		assert.Contains(t, p, "- MRN: ")
		assert.Contains(t, p, "## Valuation:")
		assert.Contains(t, p, "Don't put customs declaration in the subject")
	}
}

func TestDeclaration_RenderFailure(t *testing.T) {
	cause := errors.New("gotenberg down")
	deps := testDeps(replyWith(withAttachment), &fakeRenderer{err: cause})

	_, err := Declaration(deps.Producers.Declaration, deps).Generate(context.Background(), state(phantommail.Declaration))

	var rerr *phantommail.RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, phantommail.Declaration, rerr.Category)
	assert.ErrorIs(t, err, cause)
}

func TestMessageCategories(t *testing.T) {
	tests := []struct {
		category phantommail.Category
		persona  string
		contains string
	}{
		{phantommail.Question, "Vectrix Logistics NV", "fake question email"},
		{phantommail.Complaint, "Vectrix Logistics NV", "fake complaint email"},
		{phantommail.PriceRequest, "price negotiation", "Transport inquiry"},
		{phantommail.WaitingCosts, "waiting cost charges", "RE: Waiting costs - Delivery"},
		{phantommail.UpdateOrder, "update request emails", "Update request"},
		{phantommail.Random, "promotional emails", "Call to action:"},
	}
	for _, tt := range tests {
		t.Run(tt.category.String(), func(t *testing.T) {
			model := replyWith(withAttachment)
			r := &fakeRenderer{}
			gens, err := All(testDeps(model, r))
			require.NoError(t, err)

			out, err := gens[tt.category].Generate(context.Background(), state(tt.category))
			require.NoError(t, err)

			assert.NotEmpty(t, out.Subject)
			assert.NotEmpty(t, out.BodyHTML)
			assert.Empty(t, out.Attachments, "template-free categories never attach")
			assert.Zero(t, r.calls)

			require.Len(t, model.messages, 2)
			assert.Equal(t, llm.RoleSystem, model.messages[0].Role)
			assert.Contains(t, model.messages[0].Content, tt.persona)
			assert.Contains(t, model.prompt(), tt.contains)

			require.NotNil(t, model.options.ResponseSchema)
			assert.Equal(t, "email", model.options.ResponseSchema.Name)
		})
	}
}

func TestGenerate_Failures(t *testing.T) {
	t.Run("producer", func(t *testing.T) {
		model := replyWith(withoutAttachment)
		deps := testDeps(model, &fakeRenderer{})
		g := Question(func() (faker.Question, error) { return faker.Question{}, errors.New("no data") }, deps)

		_, err := g.Generate(context.Background(), state(phantommail.Question))
		var gerr *phantommail.GenerationError
		require.ErrorAs(t, err, &gerr)
		assert.Contains(t, err.Error(), "produce data: no data")
		assert.Zero(t, model.calls)
	})

	t.Run("nil producer", func(t *testing.T) {
		g := Complaint(nil, testDeps(replyWith(withoutAttachment), nil))
		_, err := g.Generate(context.Background(), state(phantommail.Complaint))
		assert.IsType(t, &phantommail.GenerationError{}, err)
	})

	t.Run("model", func(t *testing.T) {
		cause := llm.NewPermanentError("unauthorized", 401, nil)
		deps := testDeps(&fakeModel{err: cause}, nil)
		_, err := Random(deps.Producers.Random, deps).Generate(context.Background(), state(phantommail.Random))
		assert.ErrorIs(t, err, cause)
		assert.IsType(t, &phantommail.GenerationError{}, err)
	})

	t.Run("schema coercion", func(t *testing.T) {
		deps := testDeps(&fakeModel{reply: `{"subject": ""}`}, nil)
		_, err := UpdateOrder(deps.Producers.UpdateOrder, deps).Generate(context.Background(), state(phantommail.UpdateOrder))

		var uerr *client.UnmarshalError
		require.ErrorAs(t, err, &uerr)
		assert.IsType(t, &phantommail.GenerationError{}, err)
	})
}

func TestChatOptionsForwarded(t *testing.T) {
	model := replyWith(withoutAttachment)
	deps := testDeps(model, nil)
	deps.ChatOptions = []llm.Option{llm.WithTemperature(0.5), llm.WithMaxTokens(4096)}

	_, err := PriceRequest(deps.Producers.PriceRequest, deps).Generate(context.Background(), state(phantommail.PriceRequest))
	require.NoError(t, err)
	require.NotNil(t, model.options.Temperature)
	assert.InDelta(t, 0.5, *model.options.Temperature, 1e-9)
	assert.Equal(t, 4096, model.options.MaxTokens)
}

func TestTemplatePolicies(t *testing.T) {
	assert.Equal(t, 6, FixedTemplate(6).Pick([]int{1, 2}))

	rng := rand.New(rand.NewPCG(1, 2))
	seen := map[int]bool{}
	u := UniformTemplate(rng)
	for range 200 {
		seen[u.Pick([]int{1, 2})] = true
	}
	assert.Equal(t, map[int]bool{1: true, 2: true}, seen)
	assert.Zero(t, UniformTemplate(nil).Pick(nil))

	p, err := ParseTemplatePolicy("4", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Pick([]int{1}))

	p, err = ParseTemplatePolicy(" 2 ", []int{1, 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Pick([]int{1, 2}))

	for _, s := range []string{"random", "RANDOM", ""} {
		_, err = ParseTemplatePolicy(s, []int{1, 2}, nil)
		assert.NoError(t, err, s)
	}
	for _, bad := range []string{"-1", "0", "six"} {
		_, err = ParseTemplatePolicy(bad, nil, nil)
		assert.ErrorContains(t, err, "must be a template number", bad)
	}

	_, err = ParseTemplatePolicy("9", []int{1, 2, 3, 4, 5, 6}, nil)
	assert.EqualError(t, err, "template 9 does not exist (available: [1 2 3 4 5 6])")
}

func TestDeclarationDetails_DefaultsEmptyDescription(t *testing.T) {
	d := faker.Declaration{Items: []faker.DeclarationItem{{Number: 1, Packages: 3, GrossMassKg: 12.5}}}
	s := declarationDetails(d)
	assert.Contains(t, s, "- Item 1: Various goods (3 packages, 12.5kg)")
	assert.True(t, strings.HasPrefix(s, "## Declaration details:"))
}
