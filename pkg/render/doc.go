// Package render writes pending trees as plain HTML.
//
// Unlike committed markup, static output carries no element ids and text is
// not wrapped in spans, so it cannot be reconciled against later. It is
// meant for snapshots, the command line and pages that are never updated.
//
// # Basic Usage
//
//	r := render.NewRenderer(b.Strings(), b.Classes(), render.RendererConfig{})
//	html, err := r.RenderToString(node)
//
// # Full Page Rendering
//
//	err := r.RenderPage(w, render.PageData{Body: node, Title: "Report"})
//
// # Security
//
// Text and attribute values are escaped. Raw text nodes are written
// verbatim and should only hold trusted content.
package render
