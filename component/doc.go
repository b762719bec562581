// Package component defines lifecycle-managed services: the database, the
// redis cache, the question index, the session manager and the HTTP server
// all implement Component and are started in dependency order by a Registry.
package component
