// Package provider defines the minimal contract shared by pluggable backends
// (transcription vendors, storage, chat models) and a generic factory
// registry keyed by backend type.
//
//	reg := provider.NewRegistry[transcription.Adapter, transcription.ProviderConfig]()
//	reg.RegisterFactory("deepgram", deepgram.New)
//	a, err := reg.Create(cfg.Type, cfg)
package provider
