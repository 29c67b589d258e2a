package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"minerd/internal/backend"
	"minerd/internal/registry"
)

// Config holds runtime parameters for a miner process.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Axon    AxonConfig    `json:"axon" yaml:"axon" toml:"axon"`
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime" toml:"runtime"`
	Prompt  PromptConfig  `json:"prompt" yaml:"prompt" toml:"prompt"`
	Embed   EmbedConfig   `json:"embed" yaml:"embed" toml:"embed"`
	Video   VideoConfig   `json:"video" yaml:"video" toml:"video"`
}

// AxonConfig controls the serving endpoint.
type AxonConfig struct {
	Addr          string   `json:"addr" yaml:"addr" toml:"addr"`
	MaxQueueDepth int      `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	MaxWaitMS     int      `json:"max_wait_ms" yaml:"max_wait_ms" toml:"max_wait_ms"`
	MaxBodyBytes  int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORSEnabled   bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins   []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Backend choices for where inference runs.
const (
	// BackendRuntime delegates inference to the external model-runtime server.
	BackendRuntime = "runtime"
	// BackendLlama runs generation in-process via llama.cpp. Prompt miners
	// only; requires a binary built with the 'llama' tag and a GGUF file.
	BackendLlama = "llama"
)

// RuntimeConfig controls how the model runtime is reached and placed.
type RuntimeConfig struct {
	Backend          string `json:"backend" yaml:"backend" toml:"backend"`
	URL              string `json:"url" yaml:"url" toml:"url"`
	Framework        string `json:"deployment_framework" yaml:"deployment_framework" toml:"deployment_framework"`
	Device           string `json:"device" yaml:"device" toml:"device"`
	LocalRank        int    `json:"local_rank" yaml:"local_rank" toml:"local_rank"`
	WorldSize        int    `json:"world_size" yaml:"world_size" toml:"world_size"`
	RequestTimeoutMS int    `json:"request_timeout_ms" yaml:"request_timeout_ms" toml:"request_timeout_ms"`
	ConnectTimeoutMS int    `json:"connect_timeout_ms" yaml:"connect_timeout_ms" toml:"connect_timeout_ms"`

	// In-process llama backend settings, ignored for the runtime backend.
	ModelPath string `json:"model_path" yaml:"model_path" toml:"model_path"`
	CtxSize   int    `json:"ctx_size" yaml:"ctx_size" toml:"ctx_size"`
	Threads   int    `json:"threads" yaml:"threads" toml:"threads"`
}

// PromptConfig holds text-generation miner settings.
type PromptConfig struct {
	ModelName    string  `json:"model_name" yaml:"model_name" toml:"model_name"`
	MaxNewTokens int     `json:"max_new_tokens" yaml:"max_new_tokens" toml:"max_new_tokens"`
	TopK         int     `json:"top_k" yaml:"top_k" toml:"top_k"`
	Temperature  float32 `json:"temperature" yaml:"temperature" toml:"temperature"`
	DoSample     bool    `json:"do_sample" yaml:"do_sample" toml:"do_sample"`
}

// EmbedConfig holds text-to-embedding miner settings.
type EmbedConfig struct {
	ModelName string `json:"model_name" yaml:"model_name" toml:"model_name"`
}

// VideoConfig holds text-to-video miner settings.
// Zero synthesis parameters fall back to the catalog defaults of the model.
type VideoConfig struct {
	ModelName         string `json:"model_name" yaml:"model_name" toml:"model_name"`
	NumInferenceSteps int    `json:"num_inference_steps" yaml:"num_inference_steps" toml:"num_inference_steps"`
	NumFrames         int    `json:"num_frames" yaml:"num_frames" toml:"num_frames"`
	FPS               int    `json:"fps" yaml:"fps" toml:"fps"`
}

// Defaults returns the config applied when nothing is specified.
func Defaults() Config {
	return Config{
		Axon: AxonConfig{
			Addr:          ":8091",
			MaxQueueDepth: 32,
			MaxWaitMS:     30_000,
			MaxBodyBytes:  1 << 20,
		},
		Runtime: RuntimeConfig{
			Backend:          BackendRuntime,
			URL:              "http://127.0.0.1:8500",
			Framework:        backend.FrameworkAccelerate,
			Device:           "cpu",
			LocalRank:        0,
			WorldSize:        1,
			RequestTimeoutMS: 120_000,
			ConnectTimeoutMS: 5_000,
			CtxSize:          2048,
			Threads:          4,
		},
		Prompt: PromptConfig{
			ModelName:    "sambanovasystems/BLOOMChat-176B-v1",
			MaxNewTokens: 100,
			TopK:         10,
			DoSample:     true,
		},
		Embed: EmbedConfig{
			ModelName: "bert-base-cased",
		},
		Video: VideoConfig{
			ModelName: "damo-vilab/text-to-video-ms-1.7b",
		},
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Placement builds the backend placement from the runtime section.
func (r RuntimeConfig) Placement() backend.Placement {
	return backend.Placement{
		Framework: r.Framework,
		Device:    r.Device,
		LocalRank: r.LocalRank,
		WorldSize: r.WorldSize,
	}
}

// RequestTimeout returns the runtime request timeout as a duration.
func (r RuntimeConfig) RequestTimeout() time.Duration {
	return time.Duration(r.RequestTimeoutMS) * time.Millisecond
}

// ConnectTimeout returns the runtime connect timeout as a duration.
func (r RuntimeConfig) ConnectTimeout() time.Duration {
	return time.Duration(r.ConnectTimeoutMS) * time.Millisecond
}

// MaxWait returns the admission wait budget as a duration.
func (a AxonConfig) MaxWait() time.Duration {
	return time.Duration(a.MaxWaitMS) * time.Millisecond
}

// Check validates the sections relevant to the given miner kind. It is the
// startup-time counterpart of per-flag allowed-value enumerations: unknown
// model names and malformed placements fail here, before anything is served.
func (c Config) Check(kind string) error {
	if err := c.Runtime.Placement().Validate(); err != nil {
		return err
	}
	switch c.Runtime.Backend {
	case BackendRuntime:
	case BackendLlama:
		if kind != "prompt" {
			return fmt.Errorf("the llama backend only serves prompt miners, not %q", kind)
		}
		if c.Runtime.ModelPath == "" {
			return fmt.Errorf("runtime.model_path is required for the llama backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (choices: %s, %s)",
			c.Runtime.Backend, BackendRuntime, BackendLlama)
	}
	switch kind {
	case "prompt":
		if _, err := registry.ChatByName(c.Prompt.ModelName); err != nil {
			return err
		}
		if c.Prompt.MaxNewTokens < 1 {
			return fmt.Errorf("prompt.max_new_tokens must be >= 1, got %d", c.Prompt.MaxNewTokens)
		}
	case "embed":
		if _, err := registry.EmbeddingByName(c.Embed.ModelName); err != nil {
			return err
		}
	case "video":
		if _, err := registry.VideoByName(c.Video.ModelName); err != nil {
			return err
		}
		if c.Video.NumInferenceSteps < 0 || c.Video.NumFrames < 0 || c.Video.FPS < 0 {
			return fmt.Errorf("video synthesis defaults must be non-negative")
		}
	default:
		return fmt.Errorf("unknown miner kind %q", kind)
	}
	return nil
}

// GenParams maps the prompt section onto backend generation parameters.
func (p PromptConfig) GenParams() backend.GenParams {
	return backend.GenParams{
		MaxNewTokens: p.MaxNewTokens,
		TopK:         p.TopK,
		Temperature:  p.Temperature,
		DoSample:     p.DoSample,
	}
}
