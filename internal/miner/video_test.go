package miner

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"minerd/internal/registry"
)

type fakeSynth struct {
	video              []byte
	err                error
	steps, frames, fps int
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string, steps, frames, fps int) ([]byte, error) {
	f.steps, f.frames, f.fps = steps, frames, fps
	return f.video, f.err
}

func videoModel(t *testing.T) registry.VideoModel {
	t.Helper()
	m, err := registry.VideoByName("damo-vilab/text-to-video-ms-1.7b")
	if err != nil {
		t.Fatalf("VideoByName: %v", err)
	}
	return m
}

func TestVideoDefaultsApplied(t *testing.T) {
	synth := &fakeSynth{video: []byte{1, 2, 3}}
	m := NewVideoMiner(synth, videoModel(t), zerolog.Nop())
	out, err := m.Forward(context.Background(), "a fox", 0, 0, 0)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("bytes=%d", len(out))
	}
	md := videoModel(t)
	if synth.steps != md.DefaultSteps || synth.frames != md.DefaultFrames || synth.fps != md.DefaultFPS {
		t.Fatalf("defaults not applied: steps=%d frames=%d fps=%d", synth.steps, synth.frames, synth.fps)
	}
}

func TestVideoNegativeParamsRejected(t *testing.T) {
	m := NewVideoMiner(&fakeSynth{}, videoModel(t), zerolog.Nop())
	_, err := m.Forward(context.Background(), "a fox", -1, 16, 8)
	if !IsInvalidRequest(err) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestVideoEmptyTextRejected(t *testing.T) {
	m := NewVideoMiner(&fakeSynth{}, videoModel(t), zerolog.Nop())
	_, err := m.Forward(context.Background(), "   ", 0, 0, 0)
	if !IsInvalidRequest(err) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestVideoExplicitParamsKept(t *testing.T) {
	synth := &fakeSynth{video: []byte{0}}
	m := NewVideoMiner(synth, videoModel(t), zerolog.Nop())
	if _, err := m.Forward(context.Background(), "a fox", 50, 32, 12); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if synth.steps != 50 || synth.frames != 32 || synth.fps != 12 {
		t.Fatalf("params overridden: %+v", synth)
	}
}
