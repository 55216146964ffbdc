// Package model is the catalog of chat models the generator can call.
//
// Models know their provider, so the client routes a request to the right
// backend from the model alone:
//
//	m, err := model.Lookup(llm.ProviderVertex, "gemini-2.5-pro")
//	c := client.New(client.Config{
//	    Vertex:   client.VertexConfig{Project: "my-project", Location: "us-central1"},
//	    Defaults: client.Defaults{Chat: m},
//	})
//
// Each model carries pricing so batch runs can report an estimated cost:
//
//	cost := model.DefaultVertexModel.Cost(usage)
package model
