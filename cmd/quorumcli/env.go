package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v6"
)

// config holds settings shared by all commands. Values are read from the
// environment and can be overwritten by command line flags.
type config struct {
	Home     string `env:"QUORUM_HOME"`
	Keypair  string `env:"QUORUM_KEYPAIR"`
	LogLevel string `env:"QUORUM_LOG_LEVEL" envDefault:"error"`
}

func loadConfig() (*config, error) {
	var c config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("cannot parse environment: %s", err)
	}
	if c.Home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot find the home directory: %s", err)
		}
		c.Home = filepath.Join(dir, ".quorum")
	}
	return &c, nil
}

// flConfig registers flags of all shared settings in given flag set. Default
// values are taken from the environment. If the environment cannot be
// parsed, process is terminated.
func flConfig(fl *flag.FlagSet) *config {
	c, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fl.StringVar(&c.Home, "home", c.Home,
		"Directory holding the ledger database. You can use QUORUM_HOME environment variable to set it.")
	fl.StringVar(&c.Keypair, "keypair", c.Keypair,
		"Keypair file or a base58 encoded secret key of the signer. Defaults to id.json in the home directory. You can use QUORUM_KEYPAIR environment variable to set it.")
	fl.StringVar(&c.LogLevel, "log-level", c.LogLevel,
		"Lowest level of log messages written to stderr: debug, info, error or none. At debug, internal instruction errors are reported in full. You can use QUORUM_LOG_LEVEL environment variable to set it.")
	return c
}

// keypairPath returns the configured keypair, falling back to the one kept
// in the home directory.
func (c *config) keypairPath() string {
	if c.Keypair != "" {
		return c.Keypair
	}
	return filepath.Join(c.Home, "id.json")
}
