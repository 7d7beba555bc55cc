package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the runtests.toml harness configuration.
type Config struct {
	Reference Reference `toml:"reference"`
	Candidate Candidate `toml:"candidate"`
	Tests     Tests     `toml:"tests"`
	Run       RunConfig `toml:"run"`

	// Dir is the directory containing the config file (set at load time).
	// Relative test directories are resolved against it.
	Dir string `toml:"-"`
}

// Reference configures the reference runtime.
type Reference struct {
	// Runtime is the reference executable; the test path is its only
	// argument. Empty means expected output comes from .expect files.
	Runtime string `toml:"runtime"`
	// Name is the executable's base name. Command-line arguments with this
	// base name (with or without .exe) select the runtime.
	Name string `toml:"name"`
}

// Candidate configures the compiler under test.
type Candidate struct {
	Compile []string `toml:"compile"`
	Run     []string `toml:"run"`
}

// Tests configures test discovery.
type Tests struct {
	Dirs            []string `toml:"dirs"`
	Extension       string   `toml:"extension"`
	TreeExtension   string   `toml:"tree_extension"`
	ExpectExtension string   `toml:"expect_extension"`
}

// RunConfig configures execution.
type RunConfig struct {
	Jobs    int    `toml:"jobs"`
	Timeout string `toml:"timeout"`
	WorkDir string `toml:"workdir"`
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig parses a runtests.toml file. Unknown keys are errors.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Reference.Name == "" {
		c.Reference.Name = "php"
	}
	if c.Tests.Extension == "" {
		c.Tests.Extension = ".php"
	}
	if c.Tests.TreeExtension == "" {
		c.Tests.TreeExtension = ".yaml"
	}
	if c.Tests.ExpectExtension == "" {
		c.Tests.ExpectExtension = ".expect"
	}
	if len(c.Candidate.Run) == 0 {
		c.Candidate.Run = []string{"boundc", "run", "{tree}"}
	}
	if c.Run.Timeout == "" {
		c.Run.Timeout = "30s"
	}
	if c.Dir == "" {
		c.Dir = "."
	}
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if c.Run.Jobs < 0 {
		return fmt.Errorf("run.jobs must not be negative")
	}
	for _, ext := range []string{c.Tests.Extension, c.Tests.TreeExtension, c.Tests.ExpectExtension} {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	return nil
}

// Timeout returns the per-process timeout.
func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Run.Timeout)
	if err != nil {
		return 0, fmt.Errorf("run.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("run.timeout must be positive")
	}
	return d, nil
}

// TestDirPaths returns absolute paths for the configured test directories.
func (c *Config) TestDirPaths() []string {
	var paths []string
	for _, d := range c.Tests.Dirs {
		if filepath.IsAbs(d) {
			paths = append(paths, d)
		} else {
			paths = append(paths, filepath.Join(c.Dir, d))
		}
	}
	return paths
}

// ApplyArgs splits command-line arguments into a reference runtime path
// and test directories. An argument whose base name is the reference name
// replaces the configured runtime; every other argument is a test
// directory relative to cwd. Directories given on the command line
// replace the configured ones.
func (c *Config) ApplyArgs(cwd string, args []string) {
	var dirs []string
	for _, arg := range args {
		if c.IsReferencePath(arg) {
			c.Reference.Runtime = arg
			continue
		}
		if !filepath.IsAbs(arg) {
			arg = filepath.Join(cwd, arg)
		}
		dirs = append(dirs, filepath.Clean(arg))
	}
	if len(dirs) > 0 {
		c.Tests.Dirs = dirs
	}
}

// IsReferencePath reports whether arg names the reference runtime.
func (c *Config) IsReferencePath(arg string) bool {
	base := strings.ToLower(filepath.Base(arg))
	base = strings.TrimSuffix(base, ".exe")
	return base == strings.ToLower(c.Reference.Name)
}
