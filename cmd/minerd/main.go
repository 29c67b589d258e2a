package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"minerd/internal/axon"
	"minerd/internal/backend"
	"minerd/internal/common/fsutil"
	"minerd/internal/config"
	"minerd/internal/miner"
	"minerd/internal/registry"
)

type cliFlags struct {
	configPath string
	logLevel   string

	addr          string
	maxQueueDepth int
	corsEnabled   bool
	corsOrigins   []string

	backendKind string
	runtimeURL  string
	modelPath   string
	framework   string
	device      string
	localRank   int
	worldSize   int

	modelName    string
	maxNewTokens int
}

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	f := &cliFlags{}
	root := &cobra.Command{
		Use:           "minerd",
		Short:         "Inference miner daemon: serves prompt, embedding or video synapse calls",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "Path to a yaml/json/toml config file")
	pf.StringVar(&f.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	pf.StringVar(&f.addr, "addr", "", "HTTP listen address, e.g. :8091")
	pf.IntVar(&f.maxQueueDepth, "max-queue-depth", 0, "Maximum queued requests before backpressure")
	pf.BoolVar(&f.corsEnabled, "cors-enabled", false, "Enable CORS for the serving endpoint")
	pf.StringSliceVar(&f.corsOrigins, "cors-origins", nil, "Allowed CORS origins")
	pf.StringVar(&f.backendKind, "backend", "",
		fmt.Sprintf("Inference backend: %s|%s", config.BackendRuntime, config.BackendLlama))
	pf.StringVar(&f.runtimeURL, "runtime-url", "", "Base URL of the model runtime server")
	pf.StringVar(&f.modelPath, "model-path", "", "GGUF model file for the llama backend")
	pf.StringVar(&f.framework, "deployment-framework", "",
		fmt.Sprintf("Inference framework for multi-gpu inference: %s|%s", backend.FrameworkAccelerate, backend.FrameworkDeepSpeed))
	pf.StringVar(&f.device, "device", "", "Device to place the model on (cpu or cuda:N)")
	pf.IntVar(&f.localRank, "local-rank", 0, "Local rank when sharding across processes")
	pf.IntVar(&f.worldSize, "world-size", 0, "World size when sharding across processes")
	pf.StringVar(&f.modelName, "model-name", "", "Name of the pretrained model to serve")
	pf.IntVar(&f.maxNewTokens, "max-new-tokens", 0, "Number of new tokens to generate (prompt miner)")

	root.AddCommand(
		&cobra.Command{
			Use:   "prompt",
			Short: "Serve a text-prompting miner",
			RunE:  func(cmd *cobra.Command, args []string) error { return run(cmd, f, miner.KindPrompt) },
		},
		&cobra.Command{
			Use:   "embed",
			Short: "Serve a text-to-embedding miner",
			RunE:  func(cmd *cobra.Command, args []string) error { return run(cmd, f, miner.KindEmbed) },
		},
		&cobra.Command{
			Use:   "video",
			Short: "Serve a text-to-video miner",
			RunE:  func(cmd *cobra.Command, args []string) error { return run(cmd, f, miner.KindVideo) },
		},
	)
	return root
}

// loadConfig merges defaults, the optional config file and explicit flags.
func loadConfig(cmd *cobra.Command, f *cliFlags, kind string) (config.Config, error) {
	cfg := config.Defaults()
	if f.configPath != "" {
		p, err := fsutil.ExpandHome(f.configPath)
		if err != nil {
			return cfg, err
		}
		cfg, err = config.Load(p)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Axon.Addr = f.addr
	}
	if flags.Changed("max-queue-depth") {
		cfg.Axon.MaxQueueDepth = f.maxQueueDepth
	}
	if flags.Changed("cors-enabled") {
		cfg.Axon.CORSEnabled = f.corsEnabled
	}
	if flags.Changed("cors-origins") {
		cfg.Axon.CORSOrigins = f.corsOrigins
	}
	if flags.Changed("backend") {
		cfg.Runtime.Backend = f.backendKind
	}
	if flags.Changed("runtime-url") {
		cfg.Runtime.URL = f.runtimeURL
	}
	if flags.Changed("model-path") {
		cfg.Runtime.ModelPath = f.modelPath
	}
	if flags.Changed("deployment-framework") {
		cfg.Runtime.Framework = f.framework
	}
	if flags.Changed("device") {
		cfg.Runtime.Device = f.device
	}
	if flags.Changed("local-rank") {
		cfg.Runtime.LocalRank = f.localRank
	}
	if flags.Changed("world-size") {
		cfg.Runtime.WorldSize = f.worldSize
	}
	if flags.Changed("model-name") {
		switch kind {
		case miner.KindPrompt:
			cfg.Prompt.ModelName = f.modelName
		case miner.KindEmbed:
			cfg.Embed.ModelName = f.modelName
		case miner.KindVideo:
			cfg.Video.ModelName = f.modelName
		}
	}
	if flags.Changed("max-new-tokens") {
		cfg.Prompt.MaxNewTokens = f.maxNewTokens
	}
	if err := cfg.Check(kind); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// buildHandlers wires the miner for the requested kind over the runtime client.
func buildHandlers(kind string, cfg config.Config, rt *backend.RuntimeClient, log zerolog.Logger) (miner.Handlers, error) {
	switch kind {
	case miner.KindPrompt:
		model, err := registry.ChatByName(cfg.Prompt.ModelName)
		if err != nil {
			return miner.Handlers{}, err
		}
		gen := backend.Generator(rt)
		if cfg.Runtime.Backend == config.BackendLlama {
			g, err := backend.NewLlamaGenerator(cfg.Runtime.ModelPath, cfg.Runtime.CtxSize, cfg.Runtime.Threads)
			if err != nil {
				return miner.Handlers{}, err
			}
			gen = g
		}
		return miner.NewPromptMiner(gen, model, cfg.Prompt.GenParams(), log).Handlers(), nil
	case miner.KindEmbed:
		model, err := registry.EmbeddingByName(cfg.Embed.ModelName)
		if err != nil {
			return miner.Handlers{}, err
		}
		return miner.NewEmbedMiner(rt, model, log).Handlers(), nil
	case miner.KindVideo:
		model, err := registry.VideoByName(cfg.Video.ModelName)
		if err != nil {
			return miner.Handlers{}, err
		}
		if cfg.Video.NumInferenceSteps > 0 {
			model.DefaultSteps = cfg.Video.NumInferenceSteps
		}
		if cfg.Video.NumFrames > 0 {
			model.DefaultFrames = cfg.Video.NumFrames
		}
		if cfg.Video.FPS > 0 {
			model.DefaultFPS = cfg.Video.FPS
		}
		return miner.NewVideoMiner(rt, model, log).Handlers(), nil
	}
	return miner.Handlers{}, fmt.Errorf("unknown miner kind %q", kind)
}

func modelFor(kind string, cfg config.Config) string {
	switch kind {
	case miner.KindPrompt:
		return cfg.Prompt.ModelName
	case miner.KindEmbed:
		return cfg.Embed.ModelName
	default:
		return cfg.Video.ModelName
	}
}

func run(cmd *cobra.Command, f *cliFlags, kind string) error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(parseZerologLevel(f.logLevel)).
		With().Timestamp().Str("miner", kind).Logger()

	cfg, err := loadConfig(cmd, f, kind)
	if err != nil {
		return err
	}

	rt := backend.NewRuntimeClient(
		cfg.Runtime.URL,
		modelFor(kind, cfg),
		cfg.Runtime.Placement(),
		cfg.Runtime.RequestTimeout(),
		cfg.Runtime.ConnectTimeout(),
	)

	h, err := buildHandlers(kind, cfg, rt, log)
	if err != nil {
		return err
	}

	// Cancel in-flight work on shutdown.
	baseCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	axon.SetBaseContext(baseCtx)
	axon.SetLogger(log)
	axon.SetMaxBodyBytes(cfg.Axon.MaxBodyBytes)
	axon.SetCORSOptions(cfg.Axon.CORSEnabled, cfg.Axon.CORSOrigins,
		[]string{http.MethodGet, http.MethodPost}, []string{"Content-Type", "X-Hotkey", "X-Log-Level"})

	// Ask the runtime to load the model under the configured placement.
	// Load failures are fatal: a miner with no model has nothing to serve.
	// The llama backend loaded its model in buildHandlers already.
	if cfg.Runtime.Backend == config.BackendRuntime {
		initCtx, cancelInit := context.WithTimeout(baseCtx, 2*time.Minute)
		defer cancelInit()
		if err := rt.WaitReady(initCtx, time.Second); err != nil {
			return err
		}
		if err := rt.Init(initCtx); err != nil {
			return fmt.Errorf("model load: %w", err)
		}
		log.Info().Str("model", rt.Model()).Str("device", cfg.Runtime.Device).
			Str("framework", cfg.Runtime.Framework).Int("world_size", cfg.Runtime.WorldSize).
			Msg("model loaded")
	} else {
		log.Info().Str("model_path", cfg.Runtime.ModelPath).Msg("model loaded in process")
	}

	srv := axon.New(h, axon.Options{
		Model:         modelFor(kind, cfg),
		Device:        cfg.Runtime.Device,
		MaxQueueDepth: cfg.Axon.MaxQueueDepth,
		MaxWait:       cfg.Axon.MaxWait(),
		Events:        miner.NewLogPublisher(log),
	})
	httpSrv := &http.Server{Addr: cfg.Axon.Addr, Handler: srv.Routes()}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Axon.Addr).Msg("minerd listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-baseCtx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

func parseZerologLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
