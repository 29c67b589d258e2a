package miner

import (
	"context"

	"minerd/pkg/types"
)

// Miner kinds served by this process.
const (
	KindPrompt = "prompt"
	KindEmbed  = "embed"
	KindVideo  = "video"
)

// Call carries the request metadata the admission hooks see before a forward
// runs. It is a reduced view of the network-layer forward call.
type Call struct {
	// Kind of synapse being served: prompt, embed or video.
	Kind string
	// Hotkey is the caller identity as presented by the network layer.
	Hotkey string
	// RemoteIP of the caller.
	RemoteIP string
	// Size of the request body in bytes.
	Size int64
}

// BlacklistFunc decides whether to refuse a call before processing.
// It must be pure and side-effect free.
type BlacklistFunc func(c Call) (bool, string)

// PriorityFunc returns the relative scheduling weight handed to the outer
// scheduler. It must be pure and side-effect free.
type PriorityFunc func(c Call) float64

// AllowAll is the default blacklist policy: never reject.
func AllowAll(Call) (bool, string) { return false, "" }

// ZeroPriority is the default priority policy: no prioritization.
func ZeroPriority(Call) float64 { return 0 }

// Handlers is the request-handler record the serving layer dispatches to.
// Exactly one Forward* field matching the miner kind is set; the others stay
// nil and their routes are not registered. Backward is a no-op for the
// generation tasks served here.
type Handlers struct {
	Blacklist BlacklistFunc
	Priority  PriorityFunc

	ForwardPrompt func(ctx context.Context, messages []types.Message) (string, error)
	ForwardEmbed  func(ctx context.Context, text []string) ([][]float32, error)
	ForwardVideo  func(ctx context.Context, text string, steps, frames, fps int) ([]byte, error)

	Backward func(ctx context.Context) error
}

// Kind reports which forward the record carries, or "" when none is set.
func (h Handlers) Kind() string {
	switch {
	case h.ForwardPrompt != nil:
		return KindPrompt
	case h.ForwardEmbed != nil:
		return KindEmbed
	case h.ForwardVideo != nil:
		return KindVideo
	}
	return ""
}

// withDefaults fills nil hooks with the stub policies.
func (h Handlers) withDefaults() Handlers {
	if h.Blacklist == nil {
		h.Blacklist = AllowAll
	}
	if h.Priority == nil {
		h.Priority = ZeroPriority
	}
	if h.Backward == nil {
		h.Backward = func(context.Context) error { return nil }
	}
	return h
}

// Normalized returns a copy of h with default hooks filled in.
func (h Handlers) Normalized() Handlers { return h.withDefaults() }
