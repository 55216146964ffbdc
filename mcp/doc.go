// Package mcp exposes PhantomMail as an MCP (Model Context Protocol) server
// so AI assistants and MCP-aware tooling can request fake emails.
//
// Two tools are registered:
//
//   - send_fake_email{category, recipients, count}: generates and sends a
//     batch and returns a structured summary.
//   - list_categories: the accepted email types with descriptions.
//
// Serve over stdio:
//
//	if err := mcp.ServeStdio(app); err != nil {
//	    log.Fatal(err)
//	}
package mcp
