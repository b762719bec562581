package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kbukum/standin/bootstrap"
	"github.com/kbukum/standin/router"
)

// CheckProviders starts the app, sends every configured transcription
// provider one test call and writes the per-provider outcome to w as JSON.
// It fails when no provider answered.
func CheckProviders(ctx context.Context, a *bootstrap.App[*Config], svc *Services, w io.Writer) error {
	return a.RunTask(ctx, func(ctx context.Context) error {
		results := svc.Router.Probe(ctx)
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
		if !anyAvailable(results) {
			return fmt.Errorf("no transcription provider is available")
		}
		return nil
	})
}

func anyAvailable(results map[string]router.ProbeResult) bool {
	for _, r := range results {
		if r.Available {
			return true
		}
	}
	return false
}
