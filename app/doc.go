// Package app assembles standin from its configuration: it builds the
// provider router, question index, selector, delivery and session manager,
// registers their lifecycle components with a bootstrap.App and mounts the
// HTTP API once infrastructure is up.
package app
