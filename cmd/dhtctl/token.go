package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/nerrad567/dht-realtime/internal/auth"
)

// runToken prints a signed access token for the API.
func runToken(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", defaultConfig(), "Path to the service configuration file")
	subject := fs.String("subject", "dashboard", "Token subject")
	roleName := fs.String("role", string(auth.RoleViewer), "Role: viewer or operator")
	ttl := fs.Duration("ttl", 0, "Token lifetime (default: security.jwt.access_token_ttl)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	role, err := auth.ParseRole(*roleName)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = time.Duration(cfg.Security.JWT.AccessTokenTTL) * time.Minute
	}

	token, err := auth.GenerateAccessToken(*subject, role, cfg.Security.JWT.Secret, lifetime)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, token)
	return err
}
