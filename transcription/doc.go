// Package transcription defines the speech-to-text adapter contract shared by
// every vendor integration.
//
// An Adapter turns one encoded audio chunk into a Result whose confidence is
// normalized to [0, 1]. Adapters never keep health state and only ever fail
// with one of the adapter error kinds (AUTH_ERROR, QUOTA_EXCEEDED, TIMEOUT,
// UNAVAILABLE, MALFORMED); Classify maps transport errors into that set.
//
// # Backends
//
//   - transcription/whisper: self-hosted faster-whisper sidecar
//   - transcription/openai: OpenAI audio transcriptions
//   - transcription/deepgram: Deepgram pre-recorded listen API
//   - transcription/azure: Azure Speech short-audio REST API
//   - transcription/gemini: Gemini generateContent with inline audio
//   - transcription/assemblyai: AssemblyAI upload, transcript and poll
package transcription
