// Package backends registers every built-in transcription adapter.
package backends

import (
	"github.com/kbukum/standin/transcription"
	"github.com/kbukum/standin/transcription/assemblyai"
	"github.com/kbukum/standin/transcription/azure"
	"github.com/kbukum/standin/transcription/deepgram"
	"github.com/kbukum/standin/transcription/gemini"
	"github.com/kbukum/standin/transcription/openai"
	"github.com/kbukum/standin/transcription/whisper"
)

// Register adds all built-in factories to reg.
func Register(reg *transcription.Registry) {
	reg.RegisterFactory(whisper.Type, whisper.Factory)
	reg.RegisterFactory(openai.Type, openai.Factory)
	reg.RegisterFactory(deepgram.Type, deepgram.Factory)
	reg.RegisterFactory(azure.Type, azure.Factory)
	reg.RegisterFactory(gemini.Type, gemini.Factory)
	reg.RegisterFactory(assemblyai.Type, assemblyai.Factory)
}

// NewRegistry returns a registry with all built-in backends.
func NewRegistry() *transcription.Registry {
	reg := transcription.NewRegistry()
	Register(reg)
	return reg
}
