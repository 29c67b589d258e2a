package miner

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"minerd/internal/backend"
	"minerd/internal/registry"
)

// poolFloor is the minimum mask denominator used during mean pooling. It
// keeps all-padding inputs from dividing by zero.
const poolFloor = 1e-9

// normEps is the minimum norm used during L2 normalization, matching the
// usual eps of tensor-library normalize calls. Zero vectors stay zero.
const normEps = 1e-12

// EmbedMiner answers text-to-embedding synapse calls: it fetches raw token
// embeddings from the encoder, applies masked mean pooling, and returns one
// unit-norm vector per input string.
type EmbedMiner struct {
	enc backend.Encoder
	dim int
	log zerolog.Logger
}

// NewEmbedMiner builds an embedding miner over the given encoder.
func NewEmbedMiner(enc backend.Encoder, model registry.EmbeddingModel, log zerolog.Logger) *EmbedMiner {
	return &EmbedMiner{enc: enc, dim: model.Dim, log: log}
}

// Handlers returns the synapse handler record for this miner with the
// default admission hooks.
func (m *EmbedMiner) Handlers() Handlers {
	return Handlers{ForwardEmbed: m.Forward}.withDefaults()
}

// Dim returns the output vector width.
func (m *EmbedMiner) Dim() int { return m.dim }

// Forward embeds each input string into one L2-normalized vector.
func (m *EmbedMiner) Forward(ctx context.Context, text []string) ([][]float32, error) {
	if len(text) == 0 {
		return [][]float32{}, nil
	}
	start := time.Now()
	enc, err := m.enc.Encode(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(enc.TokenEmbeddings) != len(text) || len(enc.AttentionMask) != len(text) {
		return nil, fmt.Errorf("encoder returned %d rows for %d inputs", len(enc.TokenEmbeddings), len(text))
	}
	out := make([][]float32, len(text))
	for i := range text {
		if len(enc.TokenEmbeddings[i]) != len(enc.AttentionMask[i]) {
			return nil, fmt.Errorf("input %d: %d token embeddings but %d mask entries",
				i, len(enc.TokenEmbeddings[i]), len(enc.AttentionMask[i]))
		}
		v := meanPool(enc.TokenEmbeddings[i], enc.AttentionMask[i])
		if m.dim > 0 && len(v) != m.dim {
			return nil, fmt.Errorf("input %d: got width %d, model dim is %d", i, len(v), m.dim)
		}
		out[i] = l2Normalize(v)
	}
	m.log.Info().
		Dur("elapsed", time.Since(start)).
		Int("inputs", len(text)).
		Int("dim", m.dim).
		Msg("embedding done")
	return out, nil
}

// meanPool averages token vectors weighted by the attention mask. The
// denominator is floored at poolFloor so fully masked rows yield a zero
// vector instead of NaN.
func meanPool(tokens [][]float32, mask []float32) []float32 {
	width := 0
	for _, t := range tokens {
		width = len(t)
		break
	}
	sum := make([]float32, width)
	var count float32
	for j, tok := range tokens {
		w := mask[j]
		if w == 0 {
			continue
		}
		for k := 0; k < width && k < len(tok); k++ {
			sum[k] += tok[k] * w
		}
		count += w
	}
	denom := count
	if denom < poolFloor {
		denom = poolFloor
	}
	for k := range sum {
		sum[k] /= denom
	}
	return sum
}

// l2Normalize scales v to unit length under the L2 norm. The norm is floored
// at normEps, so the zero vector is returned unchanged.
func l2Normalize(v []float32) []float32 {
	var sq float64
	for _, x := range v {
		sq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sq)
	if norm < normEps {
		norm = normEps
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
