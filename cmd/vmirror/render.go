package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vmirror/internal/config"
	"github.com/vango-dev/vmirror/internal/errors"
	"github.com/vango-dev/vmirror/internal/treespec"
	"github.com/vango-dev/vmirror/pkg/classes"
	"github.com/vango-dev/vmirror/pkg/engine"
	"github.com/vango-dev/vmirror/pkg/intern"
	"github.com/vango-dev/vmirror/pkg/memdom"
	"github.com/vango-dev/vmirror/pkg/render"
	"github.com/vango-dev/vmirror/pkg/vdom"
)

type renderOptions struct {
	doc    int
	pretty bool
	ids    bool
	page   bool
	title  string
}

func renderCmd(g *globals) *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a tree description to HTML",
		Long: `Render a tree description to HTML.

By default the output is static markup without element ids. With
--ids the tree is mounted into an in-memory document and the
committed markup, ids included, is printed instead.

Use "-" to read the description from stdin.

Examples:
  vmirror render tree.yaml
  vmirror render --pretty --page --title Demo tree.yaml
  vmirror render --ids tree.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			return runRender(cmd.Context(), cmd.OutOrStdout(), cfg, logger(cmd.ErrOrStderr(), cfg), args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.doc, "doc", 0, "Index of the document to render in a multi-document file")
	cmd.Flags().BoolVarP(&opts.pretty, "pretty", "p", false, "Indent block elements")
	cmd.Flags().BoolVar(&opts.ids, "ids", false, "Print committed markup with element ids")
	cmd.Flags().BoolVar(&opts.page, "page", false, "Wrap the output in a full HTML document")
	cmd.Flags().StringVar(&opts.title, "title", "", "Document title for --page")

	return cmd
}

func runRender(ctx context.Context, w io.Writer, cfg *config.Config, log *slog.Logger, path string, opts renderOptions) error {
	specs, err := treespec.LoadFile(path)
	if err != nil {
		return err
	}
	if opts.doc < 0 || opts.doc >= len(specs) {
		return errors.New("R010").WithDetailf("%s has %d documents, --doc %d is out of range", path, len(specs), opts.doc)
	}
	spec := specs[opts.doc]

	if opts.ids {
		doc := memdom.New()
		e := engine.New(doc, engine.Options{
			Container: doc.Body(),
			Prefix:    cfg.IDPrefix,
			IDs:       vdom.NewIDGenerator(),
			Logger:    log,
		})
		n, err := spec.BuildFile(e.Builder(), path)
		if err != nil {
			return err
		}
		e.SetRoot(n)
		if err := e.Flush(ctx); err != nil {
			return err
		}
		markup, err := e.Markup()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, markup)
		return err
	}

	strs := intern.New()
	cls := classes.New(strs)
	n, err := spec.BuildFile(vdom.NewBuilder(strs, cls), path)
	if err != nil {
		return err
	}
	r := render.NewRenderer(strs, cls, render.RendererConfig{Pretty: opts.pretty})
	if opts.page {
		return r.RenderPage(w, render.PageData{Body: n, Title: opts.title})
	}
	out, err := r.RenderToString(n)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err = io.WriteString(w, out)
	return err
}
