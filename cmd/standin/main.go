package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kbukum/standin/app"
	"github.com/kbukum/standin/bootstrap"
	"github.com/kbukum/standin/config"
	"github.com/kbukum/standin/version"
)

const serviceName = "standin"

func main() {
	configPath := flag.String("config", "", "path to config.yml (default: ./cmd/standin/config.yml)")
	envPath := flag.String("env", "", "path to a .env file")
	showVersion := flag.Bool("version", false, "print version and exit")
	checkProviders := flag.Bool("check-providers", false, "call every transcription provider once, print the results and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(serviceName, version.Get().Short())
		return
	}

	if err := run(*configPath, *envPath, *checkProviders); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(configPath, envPath string, checkProviders bool) error {
	var opts []config.LoaderOption
	if configPath != "" {
		opts = append(opts, config.WithConfigFile(configPath))
	}
	if envPath != "" {
		opts = append(opts, config.WithEnvFile(envPath))
	}

	cfg := &app.Config{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return err
	}
	if cfg.Name == "" {
		cfg.Name = serviceName
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Version
	}

	var appOpts []bootstrap.Option
	if checkProviders {
		appOpts = append(appOpts, bootstrap.WithSummaryWriter(os.Stderr))
	}
	a, err := bootstrap.NewApp(cfg, appOpts...)
	if err != nil {
		return err
	}
	svc, err := app.Wire(a)
	if err != nil {
		return err
	}
	if checkProviders {
		return app.CheckProviders(context.Background(), a, svc, os.Stdout)
	}
	return a.Run(context.Background())
}
