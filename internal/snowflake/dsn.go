// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package snowflake

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"

	"github.com/pkg/errors"
	"github.com/snowflakedb/gosnowflake"
)

// ConnectionConfig describes how to reach one Snowflake account. It is
// supplied by internal/config and never persisted with its secret fields
// exposed in logs.
type ConnectionConfig struct {
	Account   string
	User      string
	Password  string
	Role      string
	Warehouse string
	Database  string
	Schema    string

	// Authenticator selects the auth flow. Empty means username/password.
	// "externalbrowser" uses SSO via the default browser; "snowflake_jwt"
	// uses key-pair auth and requires PrivateKeyPath.
	Authenticator  string
	PrivateKeyPath string

	// StoreTempCredential caches the externalbrowser/MFA token locally so
	// repeated connections don't re-prompt the user.
	StoreTempCredential bool
}

// DSN builds the data source name gosnowflake's driver expects, per
// ConnectionConfig.
func (c ConnectionConfig) DSN() (string, error) {
	if c.Account == "" || c.User == "" {
		return "", errors.New("snowflake: account and user are required")
	}

	cfg := &gosnowflake.Config{
		Account:   c.Account,
		User:      c.User,
		Password:  c.Password,
		Role:      c.Role,
		Warehouse: c.Warehouse,
		Database:  c.Database,
		Schema:    c.Schema,
	}
	if c.StoreTempCredential {
		cfg.ClientStoreTemporaryCredential = gosnowflake.ConfigBoolTrue
	} else {
		cfg.ClientStoreTemporaryCredential = gosnowflake.ConfigBoolFalse
	}

	switch c.Authenticator {
	case "", "snowflake":
		cfg.Authenticator = gosnowflake.AuthTypeSnowflake
	case "externalbrowser":
		cfg.Authenticator = gosnowflake.AuthTypeExternalBrowser
	case "snowflake_jwt":
		cfg.Authenticator = gosnowflake.AuthTypeJwt
		key, err := loadPrivateKey(c.PrivateKeyPath)
		if err != nil {
			return "", err
		}
		cfg.PrivateKey = key
	case "oauth":
		cfg.Authenticator = gosnowflake.AuthTypeOAuth
	default:
		return "", errors.Errorf("snowflake: unsupported authenticator %q", c.Authenticator)
	}

	dsn, err := gosnowflake.DSN(cfg)
	if err != nil {
		return "", errors.Wrap(err, "snowflake: build dsn")
	}
	return dsn, nil
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	if path == "" {
		return nil, errors.New("snowflake: snowflake_jwt authenticator requires a private key path")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "snowflake: read private key")
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("snowflake: private key file is not PEM-encoded")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "snowflake: parse private key")
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("snowflake: private key is not RSA")
	}
	return rsaKey, nil
}
