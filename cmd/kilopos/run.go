package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/fx"
)

type lifecycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Done() <-chan os.Signal
}

var exit = os.Exit

func run(ctx context.Context, app lifecycle) {
	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start kilopos: %v\n", err)
		exit(1)
		return
	}

	select {
	case <-ctx.Done():
	case <-app.Done():
	}

	if err := app.Stop(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop kilopos: %v\n", err)
		exit(1)
	}
}

var _ lifecycle = (*fx.App)(nil)
