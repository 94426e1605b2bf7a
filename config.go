package witness

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gnolang/witness/internal/schema"
)

// DefaultConfigPath is the configuration file used when none is given.
const DefaultConfigPath = ".witness.yaml"

// Config is the witness configuration file.
type Config struct {
	Producer       ProducerConfig  `yaml:"producer"`
	Task           TaskConfig      `yaml:"task"`
	EntryTypes     []string        `yaml:"entry_types"`
	InvariantTypes []string        `yaml:"invariant_types"`
	Invariant      InvariantConfig `yaml:"invariant"`
	// Path is where generated witnesses are written.
	Path     string         `yaml:"path"`
	Validate ValidateConfig `yaml:"validate"`
}

type ProducerConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	CommandLine string `yaml:"command_line,omitempty"`
}

type TaskConfig struct {
	DataModel     string `yaml:"data_model"`
	Language      string `yaml:"language"`
	Specification string `yaml:"specification,omitempty"`
}

type InvariantConfig struct {
	// Accessed restricts invariants to the variables touched around a location.
	Accessed bool `yaml:"accessed"`
	// LoopHead enables loop invariants.
	LoopHead bool `yaml:"loop_head"`
}

type ValidateConfig struct {
	// Path is the witness to validate.
	Path string `yaml:"path"`
	// Certificate is where certified witnesses are written. Empty disables output.
	Certificate string `yaml:"certificate"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Producer: ProducerConfig{Name: "witness", Version: Version},
		Task:     TaskConfig{DataModel: "LP64", Language: "C"},
		EntryTypes: []string{
			string(schema.KindLocationInvariant),
			string(schema.KindLoopInvariant),
			string(schema.KindFlowInsensitiveInvariant),
			string(schema.KindLoopInvariantCertificate),
			string(schema.KindPreconditionLoopInvariantCertificate),
		},
		InvariantTypes: []string{
			string(schema.KindLocationInvariant),
			string(schema.KindLoopInvariant),
		},
		Invariant: InvariantConfig{Accessed: true, LoopHead: true},
		Path:      "witness.yml",
	}
}

// LoadConfig reads the configuration at path over the defaults. A missing
// file yields the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if _, _, err := config.kinds(); err != nil {
		return config, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// WriteConfig writes config to path, replacing any existing file.
func WriteConfig(path string, config Config) error {
	d, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0o644)
}

func (c Config) kinds() (entries, invariants schema.KindSet, err error) {
	if entries, err = schema.ParseKinds(c.EntryTypes); err != nil {
		return nil, nil, fmt.Errorf("entry_types: %w", err)
	}
	if invariants, err = schema.ParseKinds(c.InvariantTypes); err != nil {
		return nil, nil, fmt.Errorf("invariant_types: %w", err)
	}
	for k := range invariants {
		if k != schema.KindLocationInvariant && k != schema.KindLoopInvariant {
			return nil, nil, fmt.Errorf("invariant_types: %s cannot be part of an invariant set", k)
		}
	}
	return entries, invariants, nil
}

func (c Config) producer() schema.Producer {
	return schema.Producer{
		Name:        c.Producer.Name,
		Version:     c.Producer.Version,
		CommandLine: c.Producer.CommandLine,
	}
}
