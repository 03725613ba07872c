package main

import (
	"context"
	"fmt"
	"io"

	"github.com/alnah/go-qmarimo/internal/endpoint"
)

// Protocol steps that read their payload from stdin.
var payloadEndpoints = map[string]bool{
	"run":     true,
	"execute": true,
	"lookup":  true,
}

// runEndpointCmd performs one render service call for the Quarto filter
// and prints the reply.
func runEndpointCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseEndpointFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(positional) != 3 {
		return fmt.Errorf("%w: endpoint takes <app> <endpoint> <yes|no>, got %d arguments", ErrUsage, len(positional))
	}
	app, name := positional[0], positional[1]
	mimeSensitive, err := parseYesNo(positional[2])
	if err != nil {
		return err
	}

	var payload string
	if payloadEndpoints[name] {
		data, err := io.ReadAll(env.Stdin)
		if err != nil {
			return fmt.Errorf("%w: stdin: %v", ErrReadInput, err)
		}
		payload = string(data)
	}

	url, err := endpointURL(flags, env)
	if err != nil {
		return err
	}
	client := endpoint.NewClient(url)

	out, err := client.Dispatch(ctx, endpoint.Target{App: app, MimeSensitive: mimeSensitive}, name, payload)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, out)
	return nil
}

// endpointURL picks the service URL: --url, then the config's endpoint.url
// (with MARIMO_RUN_ENDPOINT layered in by resolveConfig), then the default.
func endpointURL(flags *endpointFlags, env *Environment) (string, error) {
	if flags.url != "" {
		return flags.url, nil
	}
	cfg, err := resolveConfig(flags.config, env)
	if err != nil {
		return "", err
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if cfg.Endpoint.URL != "" {
		return cfg.Endpoint.URL, nil
	}
	return endpoint.BaseURLFromEnv(env.Getenv), nil
}
