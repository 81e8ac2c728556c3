package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mountainlog/go-mountainlog/hasher"
	"github.com/mountainlog/go-mountainlog/logging"
)

type Config struct {
	// DataDir holds the badger database. Empty selects the in memory store,
	// which forgets everything at exit.
	DataDir  string         `yaml:"data_dir"`
	Scheme   string         `yaml:"scheme"`
	LogLevel string         `yaml:"log_level"`
	Logging  logging.Config `yaml:"logging"`
}

func defaultConfig() Config {
	return Config{
		DataDir:  "./mountainlog-data",
		Scheme:   hasher.SchemeSHA256,
		LogLevel: zerolog.InfoLevel.String(),
		Logging:  logging.Config{}.Default(),
	}
}

// parseConfig reads the yaml config at path over the defaults. A missing file
// is not an error; everything has a default.
func parseConfig(path string) (Config, error) {
	cfg := defaultConfig()

	rawFile, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("unable to read configuration: %w", err)
	}
	if err = yaml.Unmarshal(rawFile, &cfg); err != nil {
		return cfg, fmt.Errorf("unable to decode configuration: %w", err)
	}
	return cfg, nil
}
