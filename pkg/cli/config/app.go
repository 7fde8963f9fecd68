package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// BotConfig tunes the bot's behavior from a TOML file. Everything has a
// working default, so the file is optional.
type BotConfig struct {
	ReplyText string   `toml:"reply_text"`
	Scopes    []string `toml:"scopes"`
}

// Validate checks if the BotConfig is valid
func (b *BotConfig) Validate() error {
	seen := make(map[string]bool)
	for _, scope := range b.Scopes {
		if scope == "" {
			return goerr.New("empty scope in bot config")
		}
		if seen[scope] {
			return goerr.New("duplicate scope in bot config", goerr.V("scope", scope))
		}
		seen[scope] = true
	}
	return nil
}

// App holds CLI flags for the optional bot configuration file
type App struct {
	configPath string
}

func (a *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bot-config",
			Usage:       "Path to bot configuration TOML file (optional)",
			Sources:     cli.EnvVars("PONDER_BOT_CONFIG"),
			Destination: &a.configPath,
		},
	}
}

// Configure loads the bot configuration. Without a path it returns an
// empty config, which leaves all defaults in place.
func (a *App) Configure() (*BotConfig, error) {
	if a.configPath == "" {
		return &BotConfig{}, nil
	}

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(a.configPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read bot config file", goerr.V("path", a.configPath))
	}

	var config BotConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML bot config", goerr.V("path", a.configPath))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "bot config validation failed", goerr.V("path", a.configPath))
	}

	return &config, nil
}
