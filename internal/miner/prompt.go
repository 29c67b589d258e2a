package miner

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"minerd/internal/backend"
	"minerd/internal/registry"
	"minerd/pkg/types"
)

// PromptMiner answers text-prompting synapse calls: it flattens the
// role-tagged transcript into the model family's chat format, runs one
// blocking generation, and strips the echoed transcript from the output.
type PromptMiner struct {
	gen    backend.Generator
	tpl    registry.ChatTemplate
	params backend.GenParams
	log    zerolog.Logger
}

// NewPromptMiner builds a prompting miner over the given generator.
func NewPromptMiner(gen backend.Generator, model registry.ChatModel, params backend.GenParams, log zerolog.Logger) *PromptMiner {
	return &PromptMiner{gen: gen, tpl: model.Template, params: params, log: log}
}

// Handlers returns the synapse handler record for this miner with the
// default admission hooks.
func (m *PromptMiner) Handlers() Handlers {
	return Handlers{ForwardPrompt: m.Forward}.withDefaults()
}

// Forward produces a single text continuation for the transcript.
func (m *PromptMiner) Forward(ctx context.Context, messages []types.Message) (string, error) {
	if len(messages) == 0 {
		return "", ErrInvalidRequest("messages must not be empty")
	}
	history := m.FormatTranscript(messages)
	if history == "" {
		return "", ErrInvalidRequest("no message with a known role")
	}
	start := time.Now()
	out, err := m.gen.Generate(ctx, history, m.params)
	if err != nil {
		return "", err
	}
	resp := stripEcho(out, history)
	m.log.Info().
		Dur("elapsed", time.Since(start)).
		Int("messages", len(messages)).
		Int("chars", len(resp)).
		Msg("generation done")
	return resp, nil
}

// FormatTranscript flattens the messages into the chat format the model was
// tuned on. System and user turns share the human marker, assistant turns use
// the bot marker; messages with unknown roles are skipped.
func (m *PromptMiner) FormatTranscript(messages []types.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem, types.RoleUser:
			b.WriteString(m.tpl.Human)
		case types.RoleAssistant:
			b.WriteString(m.tpl.Bot)
		default:
			continue
		}
		b.WriteString(msg.Content)
		b.WriteByte('\n')
	}
	return b.String()
}

// stripEcho removes the echoed transcript from the model output. Causal LMs
// return prompt+continuation; only the continuation goes back on the wire.
func stripEcho(out, history string) string {
	if rest, ok := strings.CutPrefix(out, history); ok {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(strings.ReplaceAll(out, history, ""))
}
