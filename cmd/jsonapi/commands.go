package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcpguard/jsonapi-go/internal/api"
	"github.com/mcpguard/jsonapi-go/internal/detection"
	"github.com/mcpguard/jsonapi-go/pkg/jsonapi"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *app) newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <method>",
		Short: "Print the key for a method",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.client(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.CreateToken(args[0]))
			return nil
		},
	}
}

func (a *app) newURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url <method> [arg...]",
		Short: "Print the request URL for a call without sending it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.client(cmd)
			if err != nil {
				return err
			}
			u, err := c.BuildCallURL(args[0], jsonapi.NormalizeArgs(parseArgs(args[1:]))...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}
}

func (a *app) newCallCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "call <method> [arg...]",
		Short: "Call a single method",
		Long: "Call a single method. Each argument is parsed as JSON when it is valid JSON,\n" +
			"otherwise it is sent as a string.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, err := a.client(cmd)
			if err != nil {
				return err
			}

			method, callArgs := args[0], parseArgs(args[1:])
			if cfg.Guard.Enabled {
				if err := guard(cfg.Guard.Rules, []string{method}, [][]interface{}{callArgs}); err != nil {
					return err
				}
			}

			result, err := c.Call(cmd.Context(), method, callArgs...)
			if err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), output, result); err != nil {
				return err
			}
			if res, ok := jsonapi.ParseResult(result); ok {
				return res.Err()
			}
			return nil
		},
	}

	addCallFlags(cmd, &output)
	return cmd
}

func (a *app) newCallMultipleCmd() *cobra.Command {
	var (
		output  string
		methods []string
		rawArgs []string
	)

	cmd := &cobra.Command{
		Use:   "call-multiple --method <name> [--args <json-array>] ...",
		Short: "Call several methods in one request",
		Long: "Call several methods in one request. Pass --method once per call and, if any\n" +
			"call takes arguments, --args once per call in the same order.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, cfg, err := a.client(cmd)
			if err != nil {
				return err
			}

			argsList := make([][]interface{}, len(rawArgs))
			for i, raw := range rawArgs {
				if err := json.Unmarshal([]byte(raw), &argsList[i]); err != nil {
					return fmt.Errorf("--args %d is not a JSON array: %w", i+1, err)
				}
			}
			if len(rawArgs) == 0 {
				argsList = make([][]interface{}, len(methods))
			}

			if cfg.Guard.Enabled {
				if err := guard(cfg.Guard.Rules, methods, argsList); err != nil {
					return err
				}
			}

			results, err := c.CallMultiple(cmd.Context(), methods, argsList)
			if err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), output, results); err != nil {
				return err
			}
			for _, r := range results {
				if res, ok := jsonapi.ParseResult(r); ok && res.Err() != nil {
					return res.Err()
				}
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&methods, "method", nil, "method name (repeatable)")
	cmd.Flags().StringArrayVar(&rawArgs, "args", nil, "JSON array of arguments (repeatable)")
	_ = cmd.MarkFlagRequired("method")
	addCallFlags(cmd, &output)
	return cmd
}

func (a *app) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local mock JSONAPI server with ping and echo methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Username == "" || cfg.Password == "" || cfg.Salt == "" {
				return fmt.Errorf("serve needs username, password and salt")
			}

			s := api.NewServer(api.ServerConfig{
				Username: cfg.Username,
				Password: cfg.Password,
				Salt:     cfg.Salt,
				Logger:   logger,
			})
			s.RegisterBuiltins()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return s.ListenAndServe(ctx, cfg.Listen)
		},
	}

	cmd.Flags().String("listen", "", "listen address (default :20059)")
	return cmd
}

func addCallFlags(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, "output", "o", "json", "output format: json or yaml")
	cmd.Flags().Bool("guard", false, "refuse to send arguments that contain secrets")
	cmd.Flags().String("rules", "", "gitleaks rule file for --guard (default built-in rules)")
}

// guard fails when any argument matches a secret detection rule. Arguments
// travel in the query string of a plain HTTP request.
func guard(rulesPath string, methods []string, argsList [][]interface{}) error {
	engine, err := detection.NewEngine(rulesPath)
	if err != nil {
		return fmt.Errorf("failed to create detection engine: %w", err)
	}
	if results := engine.Scan(methods, argsList); len(results) > 0 {
		return fmt.Errorf("refusing to send secrets: %s", detection.Summary(results))
	}
	return nil
}

// parseArgs decodes each argument as JSON, keeping it as a plain string when
// it is not valid JSON.
func parseArgs(raw []string) []interface{} {
	args := make([]interface{}, len(raw))
	for i, s := range raw {
		var v interface{}
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			v = s
		}
		args[i] = v
	}
	return args
}

func render(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
