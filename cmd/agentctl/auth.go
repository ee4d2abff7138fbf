package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

// oauthSettings describes the identity provider agentctl signs in with.
type oauthSettings struct {
	ClientID      string   `yaml:"client_id,omitempty"`
	DeviceAuthURL string   `yaml:"device_auth_url,omitempty"`
	TokenURL      string   `yaml:"token_url,omitempty"`
	Scopes        []string `yaml:"scopes,omitempty"`
}

var errOAuthNotConfigured = errors.New("sign-in is not configured; set oauth.client_id, oauth.device_auth_url and oauth.token_url")

func (s oauthSettings) configured() bool {
	return s.ClientID != "" && s.DeviceAuthURL != "" && s.TokenURL != ""
}

func (s oauthSettings) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID: s.ClientID,
		Scopes:   s.Scopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: s.DeviceAuthURL,
			TokenURL:      s.TokenURL,
		},
	}
}

func (c *cliConfig) storedToken() *oauth2.Token {
	if c.Token == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  c.Token,
		TokenType:    "Bearer",
		RefreshToken: c.RefreshToken,
		Expiry:       c.TokenExpiry,
	}
}

func (c *cliConfig) storeToken(tok *oauth2.Token) {
	c.Token = tok.AccessToken
	// providers may omit the refresh token on refresh responses
	if tok.RefreshToken != "" {
		c.RefreshToken = tok.RefreshToken
	}
	c.TokenExpiry = tok.Expiry.UTC()
}

func (c *cliConfig) clearToken() {
	c.Token = ""
	c.RefreshToken = ""
	c.TokenExpiry = time.Time{}
}

// silentToken returns the stored token while it is valid and otherwise tries the refresh
// token. A nil token means an interactive sign-in is needed.
func silentToken(ctx context.Context, cfg *cliConfig) (tok *oauth2.Token, refreshed bool, err error) {
	stored := cfg.storedToken()
	if stored == nil {
		return nil, false, nil
	}
	if stored.Valid() {
		return stored, false, nil
	}
	if stored.RefreshToken == "" || !cfg.OAuth.configured() {
		return nil, false, nil
	}

	fresh, err := cfg.OAuth.oauth2Config().TokenSource(ctx, stored).Token()
	if err != nil {
		return nil, false, fmt.Errorf("refresh token: %w", err)
	}
	return fresh, true, nil
}

// deviceLogin runs the OAuth 2.0 device authorization grant, printing the code for the user.
func deviceLogin(ctx context.Context, settings oauthSettings, out io.Writer) (*oauth2.Token, error) {
	conf := settings.oauth2Config()

	auth, err := conf.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("start device authorization: %w", err)
	}
	if auth.VerificationURIComplete != "" {
		fmt.Fprintf(out, "To sign in, open %s\n", auth.VerificationURIComplete)
	} else {
		fmt.Fprintf(out, "To sign in, open %s and enter the code %s\n", auth.VerificationURI, auth.UserCode)
	}

	tok, err := conf.DeviceAccessToken(ctx, auth)
	if err != nil {
		return nil, fmt.Errorf("wait for device authorization: %w", err)
	}
	return tok, nil
}

// refreshStoredToken swaps an expired file token for a fresh one and persists it.
func (o *rootOptions) refreshStoredToken(ctx context.Context, cfg *cliConfig) error {
	if o.token != "" || strings.TrimSpace(os.Getenv(envToken)) != "" {
		return nil
	}
	tok, refreshed, err := silentToken(ctx, cfg)
	if err != nil {
		return fmt.Errorf("session expired, run 'agentctl login': %w", err)
	}
	if !refreshed {
		return nil
	}

	path, err := o.resolveConfigPath()
	if err != nil {
		return err
	}
	fileCfg, err := loadFileConfig(path)
	if err != nil {
		return err
	}
	fileCfg.storeToken(tok)
	if err := saveConfig(path, fileCfg); err != nil {
		return err
	}
	cfg.storeToken(tok)
	return nil
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with your identity provider and store the token",
		Long: "login reuses a stored token while it is valid, refreshes it when it has expired, and " +
			"otherwise starts a device code sign-in.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.resolveConfigPath()
			if err != nil {
				return err
			}
			cfg, err := loadFileConfig(path)
			if err != nil {
				return err
			}
			if !cfg.OAuth.configured() {
				return errOAuthNotConfigured
			}

			out := cmd.OutOrStdout()
			if !force {
				tok, refreshed, err := silentToken(cmd.Context(), cfg)
				switch {
				case err != nil:
					fmt.Fprintf(out, "Stored session could not be refreshed (%v)\n", err)
				case tok != nil && !refreshed:
					fmt.Fprintln(out, "Already signed in")
					return nil
				case tok != nil:
					cfg.storeToken(tok)
					if err := saveConfig(path, cfg); err != nil {
						return err
					}
					fmt.Fprintln(out, "Session refreshed")
					return nil
				}
			}

			tok, err := deviceLogin(cmd.Context(), cfg.OAuth, out)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			cfg.storeToken(tok)
			if err := saveConfig(path, cfg); err != nil {
				return err
			}
			fmt.Fprintln(out, "Signed in")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "always start a new device code sign-in")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.resolveConfigPath()
			if err != nil {
				return err
			}
			cfg, err := loadFileConfig(path)
			if err != nil {
				return err
			}
			if cfg.Token == "" && cfg.RefreshToken == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			cfg.clearToken()
			if err := saveConfig(path, cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
