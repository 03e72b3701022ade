// Command get-token builds an auth adapter from a textual specification
// and prints one issued access token to stdout.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"github.com/punamverma/dss/auth"
)

type CLI struct {
	Adapter  string   `help:"Adapter specification, e.g. DummyOAuth(http://localhost:8085/token, uss1)."`
	Audience string   `help:"Intended audience for the token."`
	Scopes   []string `help:"Scopes to request."`
	Config   string   `help:"YAML file with adapter, audience and scopes; flags override it." type:"existingfile"`
}

type fileConfig struct {
	Adapter  string   `yaml:"adapter"`
	Audience string   `yaml:"audience"`
	Scopes   []string `yaml:"scopes"`
}

func (cli *CLI) resolve() (fileConfig, error) {
	var cfg fileConfig

	if cli.Config != "" {
		data, err := os.ReadFile(cli.Config)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	if cli.Adapter != "" {
		cfg.Adapter = cli.Adapter
	}

	if cli.Audience != "" {
		cfg.Audience = cli.Audience
	}

	if len(cli.Scopes) > 0 {
		cfg.Scopes = cli.Scopes
	}

	if cfg.Adapter == "" {
		return cfg, fmt.Errorf("an adapter specification is required (--adapter or config file)")
	}

	if cfg.Audience == "" {
		return cfg, fmt.Errorf("an audience is required (--audience or config file)")
	}

	return cfg, nil
}

func (cli *CLI) Run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := cli.resolve()
	if err != nil {
		return err
	}

	adapter, err := auth.Make(ctx, cfg.Adapter)
	if err != nil {
		return err
	}

	logger.Info("requesting token",
		slog.String("audience", cfg.Audience),
		slog.Any("scopes", cfg.Scopes))

	token, err := adapter.IssueToken(ctx, cfg.Audience, cfg.Scopes)
	if err != nil {
		return err
	}

	fmt.Println(token)

	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var cli CLI
	kctx := kong.Parse(&cli)
	kctx.FatalIfErrorf(cli.Run(ctx, logger))
}
