package commands

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output  string `short:"o" help:"Override the configured output directory"`
	Workers int    `short:"w" help:"Override the configured number of workers"`
	NoClean bool   `name:"no-clean" help:"Keep existing output instead of removing it first"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Output.Directory, _ = filepath.Abs(b.Output)
	}
	if b.Workers > 0 {
		cfg.Build.Workers = b.Workers
	}
	if b.NoClean {
		cfg.Output.Clean = false
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.build(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Built %d resources (%d bytes) into %s in %s\n",
		report.Resources, report.Bytes, cfg.Output.Directory, report.Duration.Round(time.Millisecond))
	return nil
}
