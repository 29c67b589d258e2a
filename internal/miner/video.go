package miner

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"minerd/internal/backend"
	"minerd/internal/registry"
)

// VideoMiner answers text-to-video synapse calls. Synthesis parameters are
// validated here; the rendering itself happens in the backend.
type VideoMiner struct {
	synth backend.VideoSynthesizer
	model registry.VideoModel
	log   zerolog.Logger
}

// NewVideoMiner builds a video miner over the given synthesizer.
func NewVideoMiner(synth backend.VideoSynthesizer, model registry.VideoModel, log zerolog.Logger) *VideoMiner {
	return &VideoMiner{synth: synth, model: model, log: log}
}

// Handlers returns the synapse handler record for this miner with the
// default admission hooks.
func (m *VideoMiner) Handlers() Handlers {
	return Handlers{ForwardVideo: m.Forward}.withDefaults()
}

// Forward synthesizes a video clip for the prompt. Zero-valued parameters
// take the model's defaults; negative values are rejected.
func (m *VideoMiner) Forward(ctx context.Context, text string, steps, frames, fps int) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidRequest("text must not be empty")
	}
	if steps < 0 || frames < 0 || fps < 0 {
		return nil, ErrInvalidRequest("num_inference_steps, num_frames and fps must be non-negative")
	}
	if steps == 0 {
		steps = m.model.DefaultSteps
	}
	if frames == 0 {
		frames = m.model.DefaultFrames
	}
	if fps == 0 {
		fps = m.model.DefaultFPS
	}
	start := time.Now()
	video, err := m.synth.Synthesize(ctx, text, steps, frames, fps)
	if err != nil {
		return nil, err
	}
	m.log.Info().
		Dur("elapsed", time.Since(start)).
		Int("steps", steps).
		Int("frames", frames).
		Int("fps", fps).
		Int("bytes", len(video)).
		Msg("synthesis done")
	return video, nil
}
