package lsys

import "time"

// GenerationEvent describes one completed rewriting pass.
type GenerationEvent struct {
	Generation int // zero-based
	InputLen   int
	OutputLen  int
	Duration   time.Duration
}

// InterpretEvent describes a completed interpretation pass.
type InterpretEvent struct {
	Symbols  int
	Nodes    int
	MaxDepth int
	Duration time.Duration
}

// Hooks defines callbacks for observing evolution and interpretation.
// Nil fields are skipped.
type Hooks struct {
	OnGeneration func(GenerationEvent)
	OnInterpret  func(InterpretEvent)
}

func (h Hooks) generation(e GenerationEvent) {
	if h.OnGeneration != nil {
		h.OnGeneration(e)
	}
}

func (h Hooks) interpret(e InterpretEvent) {
	if h.OnInterpret != nil {
		h.OnInterpret(e)
	}
}

// Merge returns hooks that call h first and then other.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnGeneration: func(e GenerationEvent) {
			h.generation(e)
			other.generation(e)
		},
		OnInterpret: func(e InterpretEvent) {
			h.interpret(e)
			other.interpret(e)
		},
	}
}
