// Package config loads the command line configuration from an HCL file:
//
//	wiki       = "xwiki"
//	log_level  = "debug"
//	log_format = "json"
//
//	source {
//	  kind = "sqlite"
//	  path = "wiki.db"
//	}
//
// Every attribute is optional. Command line flags override the file.
package config

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/agentic-research/exporttree/internal/logging"
	"github.com/agentic-research/exporttree/internal/source"
)

// DefaultWiki is the wiki name used when neither the file nor the fixture
// names one.
const DefaultWiki = "xwiki"

var ErrNoSource = errors.New("no source configured")

// Config is the decoded configuration file.
type Config struct {
	Wiki      string  `hcl:"wiki,optional"`
	LogLevel  string  `hcl:"log_level,optional"`
	LogFormat string  `hcl:"log_format,optional"`
	Source    *Source `hcl:"source,block"`
}

// Source selects the fixture a session loads its tree from.
type Source struct {
	Kind string `hcl:"kind,optional"`
	Path string `hcl:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: logging.FormatConsole,
	}
}

// Load decodes the file at path over the defaults. The file name must end in
// ".hcl".
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes src as if it were read from filename.
func Parse(filename string, src []byte) (*Config, error) {
	cfg := Default()
	if err := hclsimple.Decode(filename, src, nil, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filename, err)
	}
	return cfg, nil
}

// Validate checks the fields that can be checked without opening anything.
func (c *Config) Validate() error {
	if c.Source == nil || c.Source.Path == "" {
		return ErrNoSource
	}
	switch c.Source.Kind {
	case "", source.KindJSON, source.KindSQLite:
	default:
		return fmt.Errorf("source kind must be %q or %q, got %q", source.KindJSON, source.KindSQLite, c.Source.Kind)
	}
	switch c.LogFormat {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("log_format must be %q or %q, got %q", logging.FormatConsole, logging.FormatJSON, c.LogFormat)
	}
	return nil
}

// WikiName resolves the wiki name: the configured one, else the fixture's,
// else DefaultWiki.
func (c *Config) WikiName(fromSource string) string {
	switch {
	case c.Wiki != "":
		return c.Wiki
	case fromSource != "":
		return fromSource
	default:
		return DefaultWiki
	}
}
