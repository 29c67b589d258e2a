//go:build llama

package backend

import (
	"context"
	"errors"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaGenerator runs generation in-process via llama.cpp. It exists for
// CPU/GGUF deployments where no separate runtime server is wanted. The model
// is loaded once at construction and freed on Close; Predict is not
// reentrant, so calls are serialized with a mutex.
type llamaGenerator struct {
	mu      sync.Mutex
	model   *llama.LLama
	threads int
}

// NewLlamaGenerator loads a GGUF model file and returns a Generator over it.
func NewLlamaGenerator(modelPath string, ctxSize, threads int) (Generator, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	m, err := llama.New(modelPath, llama.SetContext(ctxSize))
	if err != nil {
		return nil, err
	}
	return &llamaGenerator{model: m, threads: threads}, nil
}

func (g *llamaGenerator) Generate(ctx context.Context, prompt string, params GenParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.model == nil {
		return "", errors.New("llama model not initialized")
	}
	// Bridge cancellation into the token callback.
	g.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	})
	po := []llama.PredictOption{
		llama.SetTokens(maxInt(1, params.MaxNewTokens)),
		llama.SetThreads(maxInt(1, g.threads)),
		llama.SetTopK(nzInt(params.TopK, llama.DefaultOptions.TopK)),
		llama.SetTopP(nzFloat(params.TopP, llama.DefaultOptions.TopP)),
		llama.SetTemperature(nzFloat(params.Temperature, llama.DefaultOptions.Temperature)),
	}
	if params.Seed != 0 {
		po = append(po, llama.SetSeed(params.Seed))
	}
	text, err := g.model.Predict(prompt, po...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return text, nil
}

// Close frees the loaded model.
func (g *llamaGenerator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.model != nil {
		g.model.Free()
		g.model = nil
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func nzInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func nzFloat(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}
