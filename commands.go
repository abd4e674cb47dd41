package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/golojan/golojan-auth/authenticator"
	"github.com/golojan/golojan-auth/logger"
	"github.com/golojan/golojan-auth/pkce"
	"github.com/golojan/golojan-auth/provider"
)

// requestFlags are the authorization options accepted by authorize and request
type requestFlags struct {
	clientID     string
	clientSecret string
	redirectURI  string
	scopes       []string
	responseType string
	state        string
	nonce        string
	userID       int64
	authURL      string
	params       []string
}

func (r *requestFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&r.clientID, "client-id", "", "OAuth client ID (env GOLOJAN_CLIENT_ID)")
	f.StringVar(&r.clientSecret, "client-secret", "", "OAuth client secret (env GOLOJAN_CLIENT_SECRET)")
	f.StringVar(&r.redirectURI, "redirect-uri", "", "registered redirect URI")
	f.StringSliceVar(&r.scopes, "scope", nil, "scopes to request (repeatable)")
	f.StringVar(&r.state, "state", "", "CSRF state token (generated when omitted)")
	f.StringArrayVar(&r.params, "param", nil, "extra parameter as key=value (repeatable; key= drops it)")
}

// credentials falls back to GOLOJAN_CLIENT_ID / GOLOJAN_CLIENT_SECRET for
// unset flags. Call after setup so values from the env file are visible.
func (r *requestFlags) credentials(cmd *cobra.Command) authenticator.Credentials {
	return authenticator.Credentials{
		ClientID:     flagOrEnv(cmd, "client-id", r.clientID, envClientID),
		ClientSecret: flagOrEnv(cmd, "client-secret", r.clientSecret, envClientSecret),
	}
}

const (
	envClientID     = "GOLOJAN_CLIENT_ID"
	envClientSecret = "GOLOJAN_CLIENT_SECRET"
)

// flagOrEnv returns the flag value when it was set on the command line, else the env var
func flagOrEnv(cmd *cobra.Command, name, value, env string) string {
	if cmd.Flags().Changed(name) {
		return value
	}
	return os.Getenv(env)
}

func (r *requestFlags) options(cmd *cobra.Command) (*authenticator.Options, error) {
	opts := &authenticator.Options{
		RedirectURI:  r.redirectURI,
		Scope:        r.scopes,
		ResponseType: r.responseType,
		State:        r.state,
		Nonce:        r.nonce,
		AuthURL:      r.authURL,
	}
	if f := cmd.Flags().Lookup("user-id"); f != nil && f.Changed {
		id := r.userID
		opts.UserID = &id
	}

	extra, err := parseParams(r.params)
	if err != nil {
		return nil, err
	}
	opts.ExtraParams = extra
	return opts, nil
}

// parseParams turns key=value flags into extra parameters. Integers and
// booleans keep their type; an empty value is null.
func parseParams(raw []string) (map[string]authenticator.Value, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]authenticator.Value, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", kv)
		}
		switch {
		case value == "":
			out[key] = authenticator.NullValue()
		case value == "true" || value == "false":
			out[key] = authenticator.BoolValue(value == "true")
		default:
			if i, err := strconv.ParseInt(value, 10, 64); err == nil {
				out[key] = authenticator.IntValue(i)
			} else {
				out[key] = authenticator.StringValue(value)
			}
		}
	}
	return out, nil
}

func newAuthorizeCmd(g *globalFlags) *cobra.Command {
	r := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Build a PKCE-protected authorization URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.setup()
			if err != nil {
				return err
			}
			opts, err := r.options(cmd)
			if err != nil {
				return err
			}

			b := authenticator.NewBuilder(cfg, authenticator.WithLogger(logger.Component(log, "builder")))
			res, err := b.Build(r.credentials(cmd), opts)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), g.output, res)
		},
	}
	r.register(cmd)
	cmd.Flags().StringVar(&r.responseType, "response-type", "", "OAuth response type (default code)")
	cmd.Flags().StringVar(&r.authURL, "auth-url", "", "authorization endpoint")
	return cmd
}

func newRequestCmd(g *globalFlags) *cobra.Command {
	r := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Post an authorization payload to the Golojan auth API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.setup()
			if err != nil {
				return err
			}
			opts, err := r.options(cmd)
			if err != nil {
				return err
			}

			client, err := authenticator.NewClient(cfg, r.credentials(cmd), opts,
				authenticator.WithClientLogger(logger.Component(log, "exchanger")))
			if err != nil {
				return err
			}
			out, err := client.Authorize(cmd.Context(), nil)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), g.output, out)
		},
	}
	r.register(cmd)
	cmd.Flags().StringVar(&r.nonce, "nonce", "", "nonce forwarded to the authorization server")
	cmd.Flags().Int64Var(&r.userID, "user-id", 0, "authenticated user issuing the request")
	return cmd
}

func newProviderCmd(g *globalFlags) *cobra.Command {
	var (
		variant string
		checks  []string
		payload string
	)
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Print the Golojan provider descriptor, or map a userinfo payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := g.setup()
			if err != nil {
				return err
			}
			switch provider.Variant(variant) {
			case provider.VariantOAuth, provider.VariantOIDC:
			default:
				return fmt.Errorf("unknown provider type %q, expected oauth or oidc", variant)
			}

			d := provider.NewWithConfig(cfg, provider.Variant(variant), provider.UserConfig{
				ClientID:     os.Getenv(envClientID),
				ClientSecret: os.Getenv(envClientSecret),
				Checks:       checks,
			})
			if payload == "" {
				return render(cmd.OutOrStdout(), g.output, d)
			}

			data, err := readPayload(cmd.InOrStdin(), payload)
			if err != nil {
				return err
			}
			user, err := d.UserFromPayload(data)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), g.output, user)
		},
	}
	cmd.Flags().StringVar(&variant, "type", string(provider.VariantOIDC), "descriptor type (oauth, oidc)")
	cmd.Flags().StringSliceVar(&checks, "check", nil, "additional checks (pkce, state, none)")
	cmd.Flags().StringVar(&payload, "profile", "", "userinfo payload file to map ('-' for stdin)")
	return cmd
}

func newPKCECmd(g *globalFlags) *cobra.Command {
	var secret string
	cmd := &cobra.Command{
		Use:   "pkce",
		Short: "Derive a PKCE verifier and challenge",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := g.setup(); err != nil {
				return err
			}
			secret = flagOrEnv(cmd, "client-secret", secret, envClientSecret)
			if strings.TrimSpace(secret) == "" {
				return fmt.Errorf("--client-secret is required")
			}
			return render(cmd.OutOrStdout(), g.output, pkce.Derive(secret))
		},
	}
	cmd.Flags().StringVar(&secret, "client-secret", "", "OAuth client secret (env GOLOJAN_CLIENT_SECRET)")
	return cmd
}

func readPayload(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile payload: %w", err)
	}
	return data, nil
}

// render writes v as indented JSON or YAML
func render(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q, expected json or yaml", format)
	}
}
