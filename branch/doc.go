// Package branch holds the eight category generators.
//
// Every generator follows the same skeleton: draw fake data from a
// producer, turn it into a prompt, ask the model for an llm.Email under a
// structured-output contract and, when the chosen template declares one,
// render the attachment HTML to a PDF.
//
//	gens, err := branch.All(branch.Deps{
//		Model:     c,
//		Renderer:  renderer, // e.g. from render.NewGotenberg
//		Templates: templates.MustNew(),
//		Producers: faker.New(0).Producers(),
//	})
//	content, err := gens[phantommail.Order].Generate(ctx, state)
//
// Failures before or during the model call are *phantommail.GenerationError;
// a failed render is *phantommail.RenderError. Generators never retry; the
// model client retries transient transport errors beneath them.
package branch
