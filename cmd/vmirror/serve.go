package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vmirror/internal/config"
	"github.com/vango-dev/vmirror/internal/errors"
	"github.com/vango-dev/vmirror/internal/treespec"
	"github.com/vango-dev/vmirror/internal/watch"
	"github.com/vango-dev/vmirror/pkg/engine"
	"github.com/vango-dev/vmirror/pkg/live"
	"github.com/vango-dev/vmirror/pkg/protocol"
	"github.com/vango-dev/vmirror/pkg/snapshot"
)

type serveOptions struct {
	host   string
	port   int
	watch  time.Duration
	events []string
}

func serveCmd(g *globals) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve FILE",
		Short: "Serve a live page mirroring a tree file",
		Long: `Serve a live page mirroring a tree file.

The last document of FILE is mounted and streamed to every connected
browser. While --watch is non-zero the file is polled, and each edit
is patched into the tree so browsers receive only the mutations.

Examples:
  vmirror serve tree.yaml
  vmirror serve --port 8080 --on click=button tree.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if opts.host != "" {
				cfg.Server.Host = opts.host
			}
			if opts.port > 0 {
				cfg.Server.Port = opts.port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.host, "host", "H", "", "Host to bind to (default from vmirror.json)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on (default from vmirror.json)")
	cmd.Flags().DurationVar(&opts.watch, "watch", 250*time.Millisecond, "Poll interval for FILE, 0 disables")
	cmd.Flags().StringArrayVar(&opts.events, "on", nil, "Log delegated events, as type=selector (repeatable)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, path string, opts serveOptions) error {
	log := logger(cmd.ErrOrStderr(), cfg)

	reg := prometheus.NewRegistry()
	var metrics *engine.Metrics
	if cfg.MetricsEnabled() {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = engine.NewMetrics(
			engine.WithNamespace(cfg.Metrics.Namespace),
			engine.WithRegistry(reg),
		)
	}

	target := live.NewTarget(live.DefaultContainer, log)
	frames := engine.NewTickerFrames(cfg.Interval())
	defer frames.Stop()

	e := engine.New(target, engine.Options{
		Container: target.Container(),
		Prefix:    cfg.IDPrefix,
		Frames:    frames,
		Logger:    log,
		Metrics:   metrics,
	})

	tree := &liveTree{engine: e, path: path, log: log}
	if err := tree.load(); err != nil {
		return err
	}
	if err := e.Flush(ctx); err != nil {
		return err
	}

	store, err := snapshotStore(cfg)
	if err != nil {
		return err
	}

	srv := live.NewServer(e, target, live.ServerConfig{
		Addr:      cfg.Address(),
		Title:     cfg.Server.Title,
		Gatherer:  reg,
		Snapshots: store,
		Logger:    log,
	})
	for _, spec := range opts.events {
		eventType, selector, ok := strings.Cut(spec, "=")
		if !ok || eventType == "" || selector == "" {
			return errors.New("C122").
				WithDetailf("--on %q is not type=selector", spec).
				WithSuggestion("Use for example --on click=button")
		}
		srv.Listeners().Add(eventType, selector, func(ctx context.Context, ev *protocol.Event) error {
			log.Info("event", "type", ev.Type, "selector", ev.Selector, "target", ev.Target, "attrs", string(ev.Attrs))
			return nil
		})
	}

	if opts.watch > 0 {
		w := watch.New(watch.Config{Paths: []string{path}, Interval: opts.watch})
		w.OnChange(func(c watch.Change) {
			if c.Removed {
				log.Warn("tree file removed", "path", c.Path)
				return
			}
			if err := tree.load(); err != nil {
				log.Error("reload failed", "path", c.Path, "error", err)
			}
		})
		go w.Start(ctx)
	}

	success(cmd.ErrOrStderr(), "Serving %s on %s", path, cfg.URL())
	return srv.ListenAndServe(ctx)
}

// liveTree keeps an engine's root in step with a tree file.
type liveTree struct {
	engine *engine.Engine
	path   string
	log    *slog.Logger
	root   *engine.Handle
}

// load reads the last document of the file and patches it into the tree.
func (t *liveTree) load() error {
	specs, err := treespec.LoadFile(t.path)
	if err != nil {
		return err
	}
	n, err := specs[len(specs)-1].BuildFile(t.engine.Builder(), t.path)
	if err != nil {
		return err
	}
	if t.root == nil || !t.root.Patch(n) {
		if t.root != nil {
			t.root.Release()
		}
		t.root = t.engine.SetRoot(n)
	}
	t.log.Debug("tree loaded", "path", t.path, "scheduled", t.engine.Scheduled())
	return nil
}

// snapshotStore returns the configured snapshot store, or nil.
func snapshotStore(cfg *config.Config) (snapshot.Store, error) {
	switch {
	case cfg.Snapshot.Bucket != "":
		client := s3.New(s3.Options{
			Region:      cfg.Snapshot.Region,
			Credentials: aws.NewCredentialsCache(envCredentials()),
		})
		return snapshot.NewS3Store(client, cfg.Snapshot.Bucket, cfg.Snapshot.Prefix), nil
	case cfg.Snapshot.Dir != "":
		store, err := snapshot.NewDirStore(cfg.SnapshotDir())
		if err != nil {
			return nil, errors.New("C122").WithDetail("snapshot.dir: " + err.Error()).Wrap(err)
		}
		return store, nil
	}
	return nil, nil
}

// envCredentials reads static AWS credentials from the environment.
func envCredentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		creds := aws.Credentials{
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "environment",
		}
		if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
			return aws.Credentials{}, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
		}
		return creds, nil
	})
}
