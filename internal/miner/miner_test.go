package miner

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultHooks(t *testing.T) {
	calls := []Call{
		{},
		{Kind: KindPrompt, Hotkey: "5F3sa2TJ", RemoteIP: "10.0.0.7", Size: 512},
		{Kind: KindVideo, Size: 1 << 20},
	}
	for _, c := range calls {
		reject, reason := AllowAll(c)
		if reject || reason != "" {
			t.Fatalf("AllowAll(%+v) = (%v, %q)", c, reject, reason)
		}
		if p := ZeroPriority(c); p != 0 {
			t.Fatalf("ZeroPriority(%+v) = %v", c, p)
		}
	}
}

func TestHandlersKind(t *testing.T) {
	if k := (Handlers{}).Kind(); k != "" {
		t.Fatalf("kind=%q", k)
	}
	h := Handlers{ForwardEmbed: func(context.Context, []string) ([][]float32, error) { return nil, nil }}
	if k := h.Kind(); k != KindEmbed {
		t.Fatalf("kind=%q", k)
	}
}

func TestHandlersNormalizedFillsDefaults(t *testing.T) {
	h := Handlers{ForwardPrompt: nil}.Normalized()
	if h.Blacklist == nil || h.Priority == nil || h.Backward == nil {
		t.Fatal("defaults not filled")
	}
	if reject, _ := h.Blacklist(Call{}); reject {
		t.Fatal("default blacklist must not reject")
	}
	if err := h.Backward(context.Background()); err != nil {
		t.Fatalf("backward must be a no-op: %v", err)
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	p := NewLogPublisher(log)
	p.Publish(Event{Name: "blacklisted", Kind: KindPrompt, Fields: map[string]any{"reason": "unregistered"}})
	out := buf.String()
	for _, want := range []string{"blacklisted", KindPrompt, "unregistered"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q: %s", want, out)
		}
	}
}

func TestMemoryPublisher(t *testing.T) {
	p := NewMemoryPublisher()
	p.Publish(Event{Name: "forward_ok", Kind: KindPrompt})
	p.Publish(Event{Name: "blacklisted", Kind: KindPrompt})
	ev := p.Events()
	if len(ev) != 2 || ev[0].Name != "forward_ok" {
		t.Fatalf("events=%+v", ev)
	}
}
