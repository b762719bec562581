// Package bootstrap runs a standin process: it validates the typed config,
// starts registered components in order, runs configure and ready hooks,
// prints a startup summary, waits for a signal and shuts down within a
// graceful timeout.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*Config]) error {
//	    return wireRoutes(a)
//	})
//	err = app.Run(ctx)
package bootstrap
