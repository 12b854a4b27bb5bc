// Package stt defines the interface for Speech-to-Text providers.
package stt

import "context"

// Transcriber converts a complete audio recording into text.
type Transcriber interface {
	// Transcribe sends the full audio payload in one synchronous request
	// and returns the recognized text. An empty string with a nil error
	// means the provider recognized no speech.
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
