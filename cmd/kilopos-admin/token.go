package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/polkiloo/kilopos/internal/config"
	"github.com/polkiloo/kilopos/internal/pkg/auth"
	"github.com/polkiloo/kilopos/internal/usecase"
)

func runToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	operatorID := fs.Int64("operator", 0, "operator id to issue the token for")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if *operatorID <= 0 {
		return fmt.Errorf("-operator must be a positive id")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	operators := usecase.NewOperatorUseCase(auth.NewHMACStrategy(cfg.TokenSecret, auth.Options{TTL: cfg.TokenTTL}))
	token, err := operators.IssueToken(*operatorID)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
