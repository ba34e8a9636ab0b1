package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Suite is a YAML-defined collection of corpus runs.
//
// A suite runs several corpora, each against its own engine command, in file
// order, and yields per-entry tallies plus a combined one. This mirrors the
// usual perft workflow: the standard corpus plus a few hand-built regression
// sets against the engine binary being developed.
type Suite struct {
	// Name identifies the suite in reports.
	Name string `yaml:"name"`

	// Entries are run sequentially, in order.
	Entries []SuiteEntry `yaml:"entries"`
}

// SuiteEntry is one corpus/engine pairing within a suite.
type SuiteEntry struct {
	// Name identifies this entry in reports. Defaults to the corpus
	// file name.
	Name string `yaml:"name,omitempty"`

	// Corpus is the path to the test-vector file, relative to the suite
	// file location unless absolute.
	Corpus string `yaml:"corpus"`

	// Engine is the engine binary to invoke.
	Engine string `yaml:"engine"`

	// Args are fixed arguments placed before the depth and position.
	Args []string `yaml:"args,omitempty"`

	// Timeout bounds each invocation (e.g. "30s"). Zero means unbounded.
	Timeout Duration `yaml:"timeout,omitempty"`

	// MaxDepth, when positive, skips expectations deeper than it.
	MaxDepth int `yaml:"max_depth,omitempty"`
}

// Duration wraps time.Duration with YAML decoding from strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// LoadSuite reads and validates a suite YAML file.
//
// Corpus paths are resolved relative to the suite file's directory, so a
// suite can live next to its corpora and be invoked from anywhere.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	// Strict field validation catches typos like "corpse:" for "corpus:".
	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i := range suite.Entries {
		e := &suite.Entries[i]
		if e.Corpus != "" && !filepath.IsAbs(e.Corpus) {
			e.Corpus = filepath.Join(base, e.Corpus)
		}
		if e.Name == "" {
			e.Name = filepath.Base(e.Corpus)
		}
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}

	return &suite, nil
}

// validateSuite checks that required fields are present.
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("suite name is required")
	}
	if len(s.Entries) == 0 {
		return fmt.Errorf("suite has no entries")
	}
	for i, e := range s.Entries {
		if e.Corpus == "" {
			return fmt.Errorf("entry %d (%s): corpus is required", i, e.Name)
		}
		if e.Engine == "" {
			return fmt.Errorf("entry %d (%s): engine is required", i, e.Name)
		}
		if e.MaxDepth < 0 {
			return fmt.Errorf("entry %d (%s): max_depth must be non-negative", i, e.Name)
		}
	}
	return nil
}
