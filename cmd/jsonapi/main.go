package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mcpguard/jsonapi-go/internal/config"
	"github.com/mcpguard/jsonapi-go/pkg/jsonapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"host":       "host",
	"port":       "port",
	"username":   "username",
	"password":   "password",
	"salt":       "salt",
	"timeout":    "timeout",
	"log-format": "log.format",
	"guard":      "guard.enabled",
	"rules":      "guard.rules",
	"listen":     "listen",
}

type app struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "jsonapi",
		Short:         "Call methods on a JSONAPI server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (yaml, toml or json)")
	flags.String("host", "localhost", "server host")
	flags.Int("port", jsonapi.DefaultPort, "server port")
	flags.String("username", "", "API username")
	flags.String("password", "", "API password")
	flags.String("salt", "", "API salt")
	flags.Duration("timeout", 0, "request timeout (0 uses the configured default)")
	flags.String("log-format", "text", "log format: text or json")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log every request")

	rootCmd.AddCommand(
		a.newTokenCmd(),
		a.newURLCmd(),
		a.newCallCmd(),
		a.newCallMultipleCmd(),
		a.newServeCmd(),
	)
	return rootCmd
}

// load resolves configuration for cmd. Only flags set on the command line
// override file and environment values.
func (a *app) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	v := viper.New()
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	cfg, err := config.Load(v, a.configPath)
	if err != nil {
		return nil, nil, err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Log.NewLogger(cmd.ErrOrStderr()), nil
}

func (a *app) client(cmd *cobra.Command) (*jsonapi.Client, *config.Config, error) {
	cfg, logger, err := a.load(cmd)
	if err != nil {
		return nil, nil, err
	}
	c, err := jsonapi.New(cfg.ClientConfig(),
		jsonapi.WithTimeout(cfg.Timeout),
		jsonapi.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}
	return c, cfg, nil
}
