package backend

import "context"

// GenParams captures sampling parameters for a generation call.
type GenParams struct {
	MaxNewTokens int
	Temperature  float32
	TopK         int
	TopP         float32
	DoSample     bool
	Seed         int
}

// Generator produces a text continuation for a formatted transcript.
// Implementations must return when the context is canceled.
type Generator interface {
	Generate(ctx context.Context, prompt string, params GenParams) (string, error)
}

// Encoding holds per-input token embeddings and the matching attention mask.
// All rows are padded to a common token length.
type Encoding struct {
	// TokenEmbeddings[i][j] is the embedding vector of token j of input i.
	TokenEmbeddings [][][]float32 `json:"token_embeddings"`
	// AttentionMask[i][j] is 1 for real tokens and 0 for padding.
	AttentionMask [][]float32 `json:"attention_mask"`
}

// Encoder tokenizes inputs with padding/truncation to a common length and
// returns raw token embeddings plus the attention mask.
type Encoder interface {
	Encode(ctx context.Context, text []string) (Encoding, error)
}

// VideoSynthesizer renders an encoded video clip for a prompt.
type VideoSynthesizer interface {
	Synthesize(ctx context.Context, text string, steps, frames, fps int) ([]byte, error)
}
