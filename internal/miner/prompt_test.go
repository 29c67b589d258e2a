package miner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"minerd/internal/backend"
	"minerd/internal/registry"
	"minerd/pkg/types"
)

// echoGenerator behaves like a causal LM pipeline: it returns the prompt
// followed by a fixed continuation.
type echoGenerator struct {
	continuation string
	err          error
	lastPrompt   string
}

func (g *echoGenerator) Generate(ctx context.Context, prompt string, params backend.GenParams) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.lastPrompt = prompt
	return prompt + g.continuation, nil
}

func bloomChat(t *testing.T) registry.ChatModel {
	t.Helper()
	m, err := registry.ChatByName("sambanovasystems/BLOOMChat-176B-v1")
	if err != nil {
		t.Fatalf("ChatByName: %v", err)
	}
	return m
}

func TestPromptTranscriptMarkers(t *testing.T) {
	gen := &echoGenerator{continuation: "hi"}
	m := NewPromptMiner(gen, bloomChat(t), backend.GenParams{}, zerolog.Nop())
	got := m.FormatTranscript([]types.Message{
		{Role: types.RoleSystem, Content: "be brief"},
		{Role: types.RoleUser, Content: "hello"},
		{Role: types.RoleAssistant, Content: "hey"},
		{Role: "tool", Content: "ignored"},
	})
	want := "<human>: be brief\n<human>: hello\n<bot>: hey\n"
	if got != want {
		t.Fatalf("transcript=%q want %q", got, want)
	}
}

func TestPromptEchoStripped(t *testing.T) {
	gen := &echoGenerator{continuation: "hello there"}
	m := NewPromptMiner(gen, bloomChat(t), backend.GenParams{}, zerolog.Nop())
	out, err := m.Forward(context.Background(), []types.Message{{Role: types.RoleUser, Content: "hello"}})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if strings.HasPrefix(out, gen.lastPrompt) && gen.lastPrompt != "" {
		t.Fatalf("echoed transcript not stripped: %q", out)
	}
	if out != "hello there" {
		t.Fatalf("out=%q", out)
	}
}

func TestPromptEmptyMessages(t *testing.T) {
	m := NewPromptMiner(&echoGenerator{}, bloomChat(t), backend.GenParams{}, zerolog.Nop())
	_, err := m.Forward(context.Background(), nil)
	if !IsInvalidRequest(err) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestPromptUnknownRolesOnly(t *testing.T) {
	m := NewPromptMiner(&echoGenerator{}, bloomChat(t), backend.GenParams{}, zerolog.Nop())
	_, err := m.Forward(context.Background(), []types.Message{{Role: "tool", Content: "x"}})
	if !IsInvalidRequest(err) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestPromptGeneratorErrorPropagates(t *testing.T) {
	boom := errors.New("model exploded")
	m := NewPromptMiner(&echoGenerator{err: boom}, bloomChat(t), backend.GenParams{}, zerolog.Nop())
	_, err := m.Forward(context.Background(), []types.Message{{Role: types.RoleUser, Content: "hello"}})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}

func TestStripEchoInterior(t *testing.T) {
	// Some pipelines re-emit the transcript mid-output; every occurrence goes.
	out := stripEcho("prefix <human>: hi\n tail", "<human>: hi\n")
	if strings.Contains(out, "<human>: hi") {
		t.Fatalf("out=%q", out)
	}
}
