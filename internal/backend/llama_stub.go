//go:build !llama

package backend

// No-CGO stub compiled when the 'llama' build tag is not set, keeping default
// builds and CI CGO-free. The real generator lives in llama.go (tagged 'llama').

// NewLlamaGenerator fails fast without the 'llama' build tag.
func NewLlamaGenerator(modelPath string, ctxSize, threads int) (Generator, error) {
	return nil, ErrUnavailable("llama support not built (missing 'llama' build tag)")
}
