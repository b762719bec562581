// Package llm is a config-driven chat completion client used to answer
// questions that have no recorded reply.
//
// Providers differ only in their wire format, which a [Dialect] maps to and
// from the universal [CompletionRequest] and [CompletionResponse]. Dialect
// packages register themselves on import:
//
//	import _ "github.com/kbukum/standin/llm/openai"
//
//	adapter, err := llm.New(llm.Config{Dialect: "openai", APIKey: key})
//	text, err := llm.Complete(ctx, adapter, systemPrompt, transcript)
package llm
