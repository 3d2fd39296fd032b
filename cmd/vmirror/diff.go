package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vmirror/internal/config"
	"github.com/vango-dev/vmirror/internal/errors"
	"github.com/vango-dev/vmirror/internal/treespec"
	"github.com/vango-dev/vmirror/pkg/engine"
	"github.com/vango-dev/vmirror/pkg/live"
	"github.com/vango-dev/vmirror/pkg/memdom"
	"github.com/vango-dev/vmirror/pkg/protocol"
	"github.com/vango-dev/vmirror/pkg/vdom"
)

type diffOptions struct {
	wire   bool
	markup bool
}

// state is one tree of a diff sequence.
type state struct {
	name string
	spec *treespec.Spec
}

func diffCmd(g *globals) *cobra.Command {
	var opts diffOptions

	cmd := &cobra.Command{
		Use:   "diff FILE...",
		Short: "Print the mutations between successive trees",
		Long: `Print the mutations between successive trees.

Every document of every file is one state. The first state is
mounted, then each following state is patched into the tree and
the mutations of that flush are printed.

With --wire the mutations are buffered and coalesced the way the
live server sends them, and the encoded frame size is reported.

Examples:
  vmirror diff before.yaml after.yaml
  vmirror diff --markup steps.yaml
  vmirror diff --wire steps.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			var states []state
			for _, path := range args {
				specs, err := treespec.LoadFile(path)
				if err != nil {
					return err
				}
				for _, s := range specs {
					states = append(states, state{name: path, spec: s})
				}
			}
			return runDiff(cmd.Context(), cmd.OutOrStdout(), cfg, logger(cmd.ErrOrStderr(), cfg), states, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.wire, "wire", false, "Show coalesced wire mutations and frame sizes")
	cmd.Flags().BoolVar(&opts.markup, "markup", false, "Print the committed markup after each step")

	return cmd
}

func runDiff(ctx context.Context, w io.Writer, cfg *config.Config, log *slog.Logger, states []state, opts diffOptions) error {
	if len(states) < 2 {
		return errors.New("R010").
			WithDetailf("diff needs at least two trees, got %d", len(states)).
			WithSuggestion("Pass two files or separate documents with ---")
	}

	var (
		doc       *memdom.Document
		remote    *live.Target
		target    vdom.Target
		container vdom.Element
	)
	if opts.wire {
		remote = live.NewTarget(live.DefaultContainer, log)
		// Hide Commit so the buffered batch can be printed before it is sent.
		target = struct{ vdom.Target }{remote}
		container = remote.Container()
	} else {
		doc = memdom.New()
		target = doc
		container = doc.Body()
	}

	e := engine.New(target, engine.Options{
		Container: container,
		Prefix:    cfg.IDPrefix,
		IDs:       vdom.NewIDGenerator(),
		Logger:    log,
	})

	var h *engine.Handle
	for i, st := range states {
		n, err := st.spec.BuildFile(e.Builder(), st.name)
		if err != nil {
			return err
		}
		step := "patch"
		if i == 0 {
			step = "mount"
			h = e.SetRoot(n)
		} else if !h.Patch(n) {
			h = e.SetRoot(n)
		}
		if err := e.Flush(ctx); err != nil {
			return err
		}

		fmt.Fprintf(w, "# %d %s %s\n", i, step, st.name)
		if opts.wire {
			muts := remote.Pending()
			for _, m := range muts {
				fmt.Fprintln(w, m.String())
			}
			payload := protocol.EncodeBatch(&protocol.Batch{Seq: remote.Seq() + 1, Mutations: muts})
			fmt.Fprintf(w, "# %d mutations, %d bytes\n", len(muts), protocol.FrameHeaderSize+len(payload))
			if err := remote.Commit(ctx); err != nil {
				return err
			}
		} else {
			for _, line := range doc.Log() {
				fmt.Fprintln(w, line)
			}
			doc.Reset()
		}

		if opts.markup {
			markup, err := e.Markup()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "= %s\n", markup)
		}
	}
	return nil
}
