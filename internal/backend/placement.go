package backend

import (
	"fmt"
	"strconv"
	"strings"
)

// Deployment framework choices for multi-device inference.
const (
	FrameworkAccelerate = "accelerate"
	FrameworkDeepSpeed  = "deepspeed"
)

// Placement describes where and how the model runtime runs the model.
// Rank and world size are explicit startup parameters, not ambient state.
type Placement struct {
	Framework string `json:"framework"`
	Device    string `json:"device"`
	LocalRank int    `json:"local_rank"`
	WorldSize int    `json:"world_size"`
}

// DefaultPlacement is a single-process CPU placement.
func DefaultPlacement() Placement {
	return Placement{Framework: FrameworkAccelerate, Device: "cpu", LocalRank: 0, WorldSize: 1}
}

// Validate checks framework, device string and rank/world-size consistency.
func (p Placement) Validate() error {
	switch p.Framework {
	case FrameworkAccelerate, FrameworkDeepSpeed:
	default:
		return fmt.Errorf("unknown deployment framework %q (choices: %s, %s)",
			p.Framework, FrameworkAccelerate, FrameworkDeepSpeed)
	}
	if !validDevice(p.Device) {
		return fmt.Errorf("invalid device %q (want cpu or cuda:N)", p.Device)
	}
	if p.WorldSize < 1 {
		return fmt.Errorf("world size must be >= 1, got %d", p.WorldSize)
	}
	if p.LocalRank < 0 || p.LocalRank >= p.WorldSize {
		return fmt.Errorf("local rank %d out of range [0,%d)", p.LocalRank, p.WorldSize)
	}
	return nil
}

func validDevice(s string) bool {
	if s == "cpu" {
		return true
	}
	rest, ok := strings.CutPrefix(s, "cuda:")
	if !ok {
		return false
	}
	n, err := strconv.Atoi(rest)
	return err == nil && n >= 0
}
