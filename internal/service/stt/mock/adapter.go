// Package mock provides a mock transcriber for running without cloud
// credentials. It cycles through canned sales-call transcripts.
package mock

import (
	"context"
	"sync"
)

// DefaultTranscripts provides sample transcripts for simulation.
var DefaultTranscripts = []string{
	"I need a quote for widgets\nWe would need around five hundred units per month",
	"Can you tell me more about your enterprise plan\nOur team is about forty people",
	"We're comparing you with two other vendors\nPricing is the main factor for us",
	"The demo looked great\nI need to run it by my manager before we commit",
}

// Adapter implements stt.Transcriber with canned responses.
type Adapter struct {
	mu         sync.Mutex
	transcript string // if set, returned for every call
	index      int
	calls      int
}

// New creates a new mock transcriber cycling through DefaultTranscripts.
func New() *Adapter {
	return &Adapter{}
}

// NewFixed creates a mock transcriber that always returns the given text.
func NewFixed(transcript string) *Adapter {
	return &Adapter{transcript: transcript}
}

// Transcribe returns the next canned transcript regardless of audio content.
func (a *Adapter) Transcribe(ctx context.Context, audio []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls++
	if a.transcript != "" {
		return a.transcript, nil
	}
	t := DefaultTranscripts[a.index%len(DefaultTranscripts)]
	a.index++
	return t, nil
}

// Calls returns how many times Transcribe was invoked.
func (a *Adapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}
