package main

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the defaults of the query command. Flags given on the command
// line take precedence.
type Config struct {
	CSS      bool   `yaml:"css"`
	Preserve bool   `yaml:"preserve"`
	Ugly     bool   `yaml:"ugly"`
	Verbose  bool   `yaml:"verbose"`
	Trace    bool   `yaml:"trace"`
	File     string `yaml:"file"`
	Indent   int    `yaml:"indent"`
}

func loadConfig(file string) (Config, error) {
	var cfg Config
	r, err := os.Open(file)
	if err != nil {
		return cfg, err
	}
	defer r.Close()

	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) indent() string {
	if c.Indent <= 0 {
		return " "
	}
	return strings.Repeat(" ", c.Indent)
}
