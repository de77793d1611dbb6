package main

import (
	"context"
	"os"

	"github.com/awakeful/alarmd/internal/cli"
	"github.com/awakeful/alarmd/internal/config"
)

func main() {
	cfg := config.FromEnv()
	r := cli.NewRunner(cfg.SocketPath, os.Stdout, os.Stderr)
	os.Exit(r.Run(context.Background(), os.Args[1:]))
}
