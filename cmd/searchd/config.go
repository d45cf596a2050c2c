package main

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config represents options given in the environment.
type Config struct {
	Env      string // local, dev or prod; default: local
	LogLevel string // overrides the environment's level

	Catalog string // YAML entity catalogue; required

	SQLDriver string // mysql or sqlite3; required unless RedisAddrs is set
	SQLDSN    string // required unless RedisAddrs is set

	RedisAddrs  []string // comma-separated; switches the backend to RediSearch
	IndexPrefix string   // prepended to "<entity>_idx"

	ListenAddr string // addr format used for net.Listen; required
	Prefix     string // url prefix to mount api to without trailing slash

	DefaultLimit int // default: 50
	MaxLimit     int // default: 500
}

func loadConfig() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process("SEARCHD", c); err != nil {
		return nil, fmt.Errorf("reading configuration from environment: %w", err)
	}

	if c.Env == "" {
		c.Env = "local"
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 50
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = 500
	}

	if err := checkEmpty(c.Catalog, "CATALOG"); err != nil {
		return nil, err
	}
	if err := checkEmpty(c.ListenAddr, "LISTENADDR"); err != nil {
		return nil, err
	}
	if len(c.RedisAddrs) == 0 {
		if err := checkEmpty(c.SQLDriver, "SQLDRIVER"); err != nil {
			return nil, err
		}
		if err := checkEmpty(c.SQLDSN, "SQLDSN"); err != nil {
			return nil, err
		}
	}
	if c.SQLDriver == "mysql" && !strings.Contains(c.SQLDSN, "parseTime=true") {
		return nil, fmt.Errorf("mysql DSN must contain \"parseTime=true\"")
	}
	return c, nil
}

func checkEmpty(val, name string) error {
	if val == "" {
		return fmt.Errorf("SEARCHD_%s must be configured", name)
	}
	return nil
}
