// Package main provides the specdrift binary entry point.
// Specdrift analyzes code changes: it segments diffs into function-level
// changes, synthesizes behavioral specifications, flags drift against prior
// baselines and emits proof skeletons.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	// Register LLM providers via init()
	_ "github.com/c360studio/specdrift/llm/providers"

	// Register control-flow extractors via init()
	_ "github.com/c360studio/specdrift/flow/golang"
	_ "github.com/c360studio/specdrift/flow/java"
	_ "github.com/c360studio/specdrift/flow/python"
	_ "github.com/c360studio/specdrift/flow/ts"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/c360studio/specdrift/config"
	"github.com/c360studio/specdrift/diffseg"
	"github.com/c360studio/specdrift/drift"
	"github.com/c360studio/specdrift/llm"
	"github.com/c360studio/specdrift/model"
	"github.com/c360studio/specdrift/pipeline"
	"github.com/c360studio/specdrift/publish"
	"github.com/c360studio/specdrift/source"
	"github.com/c360studio/specdrift/spec"
	"github.com/c360studio/specdrift/storage"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "specdrift"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "specdrift",
		Short: "Change-to-specification analysis pipeline",
		Long: `Specdrift turns code changes into behavioral specifications.

For every function touched by a diff it:
- extracts control-flow facts from the current source
- synthesizes a specification (LLM-backed when configured, deterministic otherwise)
- flags drift against the previously recorded baseline
- emits a Lean proof skeleton stating the specification as obligations`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(logLevel)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(analyzeCmd(&configPath))
	cmd.AddCommand(watchCmd(&configPath))
	cmd.AddCommand(driftCmd(&configPath))
	cmd.AddCommand(theoremCmd(&configPath))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func analyzeCmd(configPath *string) *cobra.Command {
	var (
		repoPath string
		base     string
		head     string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the diff between two revisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			app, err := buildApp(ctx, cfg, repoPath)
			if err != nil {
				return err
			}
			defer app.close()

			diffText, files, err := app.accessor.Diff(ctx, base, head)
			if err != nil {
				return fmt.Errorf("compute diff %s..%s: %w", base, head, err)
			}

			report := app.pipeline.ProcessDiff(ctx, head, diffText, files)
			return writeReport(os.Stdout, report, format)
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo", ".", "Repository path to analyze")
	cmd.Flags().StringVar(&base, "base", "HEAD~1", "Base revision")
	cmd.Flags().StringVar(&head, "head", "HEAD", "Head revision")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json)")
	return cmd
}

func watchCmd(configPath *string) *cobra.Command {
	var (
		repoPath string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-analyze the working tree on file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			app, err := buildApp(ctx, cfg, repoPath)
			if err != nil {
				return err
			}
			defer app.close()

			watcher := pipeline.NewWatcher(app.pipeline, app.accessor, app.repoRoot,
				pipeline.WithDebounce(cfg.Watch.Debounce))

			go func() {
				for report := range watcher.Reports() {
					if err := writeReport(os.Stdout, report, format); err != nil {
						slog.Warn("Report output failed", "error", err)
					}
				}
			}()

			err = watcher.Watch(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo", ".", "Repository path to watch")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json)")
	return cmd
}

func driftCmd(configPath *string) *cobra.Command {
	var (
		repoPath string
		base     string
		head     string
	)

	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Report drifted functions between two revisions",
		Long: `Runs the pipeline over the diff and prints only functions whose
current control flow drifted from the recorded baseline. Exits nonzero
when drift is found, so it can gate CI.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			app, err := buildApp(ctx, cfg, repoPath)
			if err != nil {
				return err
			}
			defer app.close()

			diffText, files, err := app.accessor.Diff(ctx, base, head)
			if err != nil {
				return fmt.Errorf("compute diff %s..%s: %w", base, head, err)
			}

			report := app.pipeline.ProcessDiff(ctx, head, diffText, files)
			drifted := 0
			for _, fr := range report.Functions {
				if fr.Drift == nil || !fr.Drift.HasDrift {
					continue
				}
				drifted++
				fmt.Printf("%s: %s (confidence %.0f)\n",
					fr.FunctionKey, strings.Join(fr.Drift.Reasons, "; "), fr.Drift.Confidence)
			}
			if drifted > 0 {
				return fmt.Errorf("%d function(s) drifted", drifted)
			}
			fmt.Printf("no drift in %d function(s)\n", len(report.Functions))
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo", ".", "Repository path to analyze")
	cmd.Flags().StringVar(&base, "base", "HEAD~1", "Base revision")
	cmd.Flags().StringVar(&head, "head", "HEAD", "Head revision")
	return cmd
}

func theoremCmd(configPath *string) *cobra.Command {
	var (
		repoPath string
		base     string
		head     string
		outDir   string
	)

	cmd := &cobra.Command{
		Use:   "theorem",
		Short: "Emit Lean proof skeletons for changed functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			app, err := buildApp(ctx, cfg, repoPath)
			if err != nil {
				return err
			}
			defer app.close()

			diffText, files, err := app.accessor.Diff(ctx, base, head)
			if err != nil {
				return fmt.Errorf("compute diff %s..%s: %w", base, head, err)
			}

			report := app.pipeline.ProcessDiff(ctx, head, diffText, files)
			for _, fr := range report.Functions {
				if fr.Theorem == nil {
					continue
				}
				if outDir == "" {
					fmt.Printf("-- %s\n%s\n", fr.FunctionKey, fr.Theorem.ProofSkeleton)
					continue
				}
				if err := writeLeanFile(outDir, fr.FunctionKey, fr.Theorem.ProofSkeleton); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo", ".", "Repository path to analyze")
	cmd.Flags().StringVar(&base, "base", "HEAD~1", "Base revision")
	cmd.Flags().StringVar(&head, "head", "HEAD", "Head revision")
	cmd.Flags().StringVar(&outDir, "out", "", "Write one .lean file per function into this directory")
	return cmd
}

// writeLeanFile stores a skeleton under a filesystem-safe name derived
// from the function key.
func writeLeanFile(dir, functionKey, source string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	name := strings.NewReplacer("/", "_", ":", "_", ".", "_").Replace(functionKey) + ".lean"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	slog.Info("Wrote proof skeleton", "path", path)
	return nil
}

// app bundles the wired pipeline and its lifecycle.
type app struct {
	pipeline *pipeline.Pipeline
	accessor *source.GitAccessor
	repoRoot string
	natsConn *nats.Conn
}

func (a *app) close() {
	if a.natsConn != nil {
		a.natsConn.Close()
	}
}

// buildApp wires config into a running pipeline: model registry, LLM
// backend when configured, storage and publisher over NATS when enabled.
func buildApp(ctx context.Context, cfg *config.Config, repoPath string) (*app, error) {
	repoRoot, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolve repo path: %w", err)
	}
	info, err := os.Stat(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("stat repo path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", repoRoot)
	}

	accessor := source.NewGitAccessor(repoRoot)
	a := &app{accessor: accessor, repoRoot: repoRoot}

	var backends []spec.Backend
	if cfg.Model.RegistryPath != "" {
		regCfg, err := model.LoadRegistryConfig(cfg.Model.RegistryPath)
		if err != nil {
			return nil, err
		}
		registry := model.NewRegistryFromConfig(regCfg)
		model.SetDefault(registry)

		client := llm.NewClient(registry)
		backends = append(backends, spec.NewLLMBackend(client,
			spec.WithCapability(model.ParseCapability(cfg.Synthesis.Capability)),
			spec.WithTimeout(cfg.Synthesis.Timeout)))
	}

	metrics := pipeline.NewMetrics(prometheus.DefaultRegisterer)

	synthesizer := spec.NewSynthesizer(
		spec.WithBackends(backends...),
		spec.WithBackendFailureHook(func(backend string) {
			metrics.BackendFailures.WithLabelValues(backend).Inc()
		}),
		spec.WithCacheHitHook(func() {
			metrics.CacheHits.Inc()
		}),
	)

	var store storage.SpecStore = storage.NewMemoryStore()
	var publisher publish.Publisher = publish.NewNoopPublisher()

	if cfg.NATS.Enabled {
		conn, err := nats.Connect(cfg.NATS.URL, nats.Name(appName))
		if err != nil {
			return nil, fmt.Errorf("connect to NATS: %w", err)
		}
		a.natsConn = conn

		js, err := jetstream.New(conn)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("create JetStream context: %w", err)
		}
		natsStore, err := storage.NewNATSStore(ctx, js)
		if err != nil {
			conn.Close()
			return nil, err
		}
		store = natsStore
		publisher = publish.NewNATSPublisher(conn)
	}

	detector := drift.NewDetector(drift.WithConfig(drift.Config{
		ComplexityRatio:     cfg.Drift.ComplexityRatio,
		ConfidencePerReason: cfg.Drift.ConfidencePerReason,
		MaxConfidence:       100,
	}))

	pipelineOpts := []pipeline.Option{
		pipeline.WithAccessor(accessor),
		pipeline.WithStore(store),
		pipeline.WithPublisher(publisher),
		pipeline.WithDetector(detector),
		pipeline.WithMetrics(metrics),
		pipeline.WithConcurrency(cfg.Pipeline.Concurrency),
	}
	if len(cfg.Segmenter.TestPatterns) > 0 {
		pipelineOpts = append(pipelineOpts,
			pipeline.WithSegmenter(diffseg.NewSegmenter(
				diffseg.WithTestPatterns(cfg.Segmenter.TestPatterns))))
	}

	a.pipeline = pipeline.New(synthesizer, pipelineOpts...)
	return a, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadFromFile(path)
}

func setupLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// writeReport renders a diff report as text or JSON.
func writeReport(w *os.File, report *pipeline.DiffReport, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(w, "Analyzed %d function(s) in %s\n", len(report.Functions), report.Duration.Round(1e6))
	for _, fr := range report.Functions {
		if fr.Skipped != "" {
			fmt.Fprintf(w, "\n%s (%s): skipped, %s\n", fr.FunctionKey, fr.ChangeType, fr.Skipped)
			continue
		}
		fmt.Fprintf(w, "\n%s (%s, %s)\n", fr.FunctionKey, fr.Language, fr.ChangeType)
		if fr.Record != nil {
			fmt.Fprintf(w, "  provenance: %s, confidence: %.0f\n", fr.Record.Provenance, fr.Record.Confidence)
			fmt.Fprintf(w, "  preconditions: %d, postconditions: %d, invariants: %d, edge cases: %d\n",
				len(fr.Record.Preconditions), len(fr.Record.Postconditions),
				len(fr.Record.Invariants), len(fr.Record.EdgeCases))
		}
		if fr.Drift != nil && fr.Drift.HasDrift {
			fmt.Fprintf(w, "  DRIFT: %s (confidence %.0f)\n",
				strings.Join(fr.Drift.Reasons, "; "), fr.Drift.Confidence)
		}
		if fr.Theorem != nil {
			fmt.Fprintf(w, "  theorem: %d helper lemma(s), %d bound lemma(s)\n",
				len(fr.Theorem.HelperLemmas), len(fr.Theorem.BoundLemmas))
		}
	}
	return nil
}
