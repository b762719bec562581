// Package audio holds PCM helpers for the live pipeline: the capture format,
// WAV encoding, upload sniffing, fixed-size windowing and microphone capture.
package audio
