// Package client is the multi-provider chat client used to generate email
// content.
//
// Models know their provider, so the client routes each request to the
// right backend and initializes that backend on first use:
//
//	c := client.New(client.Config{
//	    Vertex:   client.VertexConfig{Project: "acme-mail", Location: "us-central1"},
//	    Defaults: client.Defaults{Chat: model.DefaultVertexModel},
//	}, client.WithDefaultTemperature(0.5))
//
// Transient failures (rate limits, 5xx, network timeouts) are retried with
// exponential backoff. Permanent and user-input errors return immediately as
// categorized *llm.Error values.
//
// # Structured output
//
// ChatTyped asks for a reply matching a Go struct and decodes it:
//
//	email, usage, err := client.ChatTyped[llm.Email](ctx, c, msgs,
//	    llm.WithResponseSchema(llm.EmailSchema()))
//
// A reply that is not valid JSON for the type, or that fails the type's
// Validate method, yields *UnmarshalError.
//
// # Events
//
// Set Config.Events to observe requests and retries; LogEvents drains such a
// channel into a slog.Logger.
package client
