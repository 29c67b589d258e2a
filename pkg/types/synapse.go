package types

// Message roles accepted in a prompt transcript.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of a prompt transcript.
type Message struct {
	// Role of the speaker: system, user or assistant.
	// example: user
	Role string `json:"role" example:"user"`
	// Text content of the message.
	// example: What is the capital of Texas?
	Content string `json:"content" example:"What is the capital of Texas?"`
}

// PromptRequest is the payload of a text-prompting synapse call.
type PromptRequest struct {
	// Ordered transcript of role-tagged messages.
	Messages []Message `json:"messages"`
}

// PromptResponse carries the generated continuation.
type PromptResponse struct {
	// Generated completion text, with the echoed transcript stripped.
	// example: Austin.
	Completion string `json:"completion" example:"Austin."`
	// Generation wall time in milliseconds.
	// example: 412
	ElapsedMS int64 `json:"elapsed_ms" example:"412"`
}

// EmbeddingRequest is the payload of a text-to-embedding synapse call.
type EmbeddingRequest struct {
	// Input strings to embed, one vector returned per entry.
	Text []string `json:"text"`
}

// EmbeddingResponse carries one unit-norm vector per input string.
type EmbeddingResponse struct {
	// Embedding vectors, each L2-normalized. Row i corresponds to Text[i].
	Embeddings [][]float32 `json:"embeddings"`
	// Width of each vector.
	// example: 384
	Dim int `json:"dim" example:"384"`
}

// VideoRequest is the payload of a text-to-video synapse call.
// Zero-valued parameters take server defaults; negative values are rejected.
type VideoRequest struct {
	// Prompt describing the video to synthesize.
	// example: a red fox running through snow
	Text string `json:"text" example:"a red fox running through snow"`
	// Number of diffusion steps.
	// example: 25
	NumInferenceSteps int `json:"num_inference_steps,omitempty" example:"25"`
	// Number of frames to synthesize.
	// example: 16
	NumFrames int `json:"num_frames,omitempty" example:"16"`
	// Frames per second of the encoded output.
	// example: 8
	FPS int `json:"fps,omitempty" example:"8"`
}

// VideoResponse carries the encoded video.
type VideoResponse struct {
	// Encoded video bytes (base64 in JSON).
	Video []byte `json:"video"`
	// Synthesis wall time in milliseconds.
	// example: 9200
	ElapsedMS int64 `json:"elapsed_ms" example:"9200"`
}
