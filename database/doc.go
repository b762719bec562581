// Package database provides a GORM component with connection retry,
// pooling, auto-migration and error translation.
//
// The driver is pluggable through [Component.WithDriver]; the default is
// SQLite, which is what the question bank runs on:
//
//	db := database.NewComponent(cfg, log).WithAutoMigrate(&questionbank.Question{})
//	registry.Register(db)
//
// The component respects the Enabled flag: when disabled, Start returns
// immediately and Health reports "disabled".
package database
