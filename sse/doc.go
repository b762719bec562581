// Package sse streams session events (decisions, deliveries, backpressure)
// to browser clients over Server-Sent Events.
//
// A [Hub] owns the connected clients. Client ids are namespaced by session
// so a publisher can address every listener of one session with a glob
// pattern:
//
//	hub := sse.NewHub()
//	go hub.Run()
//	sse.Publish(hub, sse.SessionPattern(id), sse.EventTypeDecision, decision)
package sse
