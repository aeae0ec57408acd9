package config

import (
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/fbxloader/fbx"
)

type Decoder struct {
	MaxDepth int    `yaml:"max_depth" toml:"max_depth"`
	Encoding string `yaml:"encoding" toml:"encoding"`
}

type Export struct {
	Bake      bool `yaml:"bake" toml:"bake"`
	Normalize bool `yaml:"normalize" toml:"normalize"`
	Binary    bool `yaml:"binary" toml:"binary"`
}

type Server struct {
	Addr string `yaml:"addr" toml:"addr"`
}

type Config struct {
	Decoder Decoder `yaml:"decoder" toml:"decoder"`
	Export  Export  `yaml:"export" toml:"export"`
	Server  Server  `yaml:"server" toml:"server"`
}

func Default() *Config {
	return &Config{
		Decoder: Decoder{MaxDepth: fbx.DefaultMaxDepth, Encoding: DefaultEncoding},
		Export:  Export{Binary: true},
		Server:  Server{Addr: ":8000"},
	}
}

// Load reads a .toml file or, for any other extension, YAML.
// Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read config")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.Wrapf(err, "Failed to parse toml config %q", path)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "Failed to parse yaml config %q", path)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "Invalid config %q", path)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Decoder.MaxDepth <= 0 {
		return errors.Errorf("decoder.max_depth must be positive, got %d", c.Decoder.MaxDepth)
	}
	if _, err := FindEncoding(c.Decoder.Encoding); err != nil {
		return err
	}
	return nil
}

func (c *Config) DecoderOptions() (fbx.Options, error) {
	enc, err := FindEncoding(c.Decoder.Encoding)
	if err != nil {
		return fbx.Options{}, err
	}
	return fbx.Options{MaxDepth: c.Decoder.MaxDepth, Encoding: enc}, nil
}
