// Package config holds the gesign tool settings. Values are layered: defaults from New, then an
// optional YAML file, then GESIGN_* environment variables, then command-line flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brickster241/GitSign/plumbing"
	geErrors "github.com/brickster241/GitSign/utils/errors"

	"github.com/brickster241/GitSign/utils/constants"
)

const (
	// EnvPrefix prefixes every environment variable read by LoadFromEnvironment
	EnvPrefix = "GESIGN_"

	// DefaultIndexDir is where the index backend creates its repository
	DefaultIndexDir = "tmp-index"

	// DefaultDirectDir is where the direct object backend creates its repository
	DefaultDirectDir = "tmp-direct"

	// DefaultAuthorName / DefaultAuthorEmail sign the bootstrap commit
	DefaultAuthorName  = "Bob"
	DefaultAuthorEmail = "bob@example.com"
)

// Config holds all gesign settings
type Config struct {
	// Key material
	KeyDir   string   `yaml:"key_dir"`
	KeyFiles []string `yaml:"key_files"`

	// Repositories
	IndexDir  string `yaml:"index_dir"`
	DirectDir string `yaml:"direct_dir"`
	Clean     bool   `yaml:"clean"`

	// Commit
	Branch      string `yaml:"branch"`
	Message     string `yaml:"message"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`

	// Password prompt, 0 retries forever
	MaxAttempts int `yaml:"max_attempts"`

	// Debugging
	Debug   bool   `yaml:"debug"`
	LogFile string `yaml:"log_file"`
}

// New creates a new Config with default values
func New() *Config {
	return &Config{
		KeyDir:      "",
		KeyFiles:    append([]string(nil), constants.KeyFiles...),
		IndexDir:    DefaultIndexDir,
		DirectDir:   DefaultDirectDir,
		Clean:       true,
		Branch:      constants.DefaultBranch,
		Message:     constants.DefaultMessage,
		AuthorName:  DefaultAuthorName,
		AuthorEmail: DefaultAuthorEmail,
		MaxAttempts: 0,
		Debug:       false,
		LogFile:     "",
	}
}

// DefaultFile returns $XDG_CONFIG_HOME/gesign/config.yaml (~/.config when unset).
func DefaultFile() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(base, "gesign", "config.yaml")
}

// LoadFile merges the YAML file at path into c. Keys absent from the file keep their current value.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return geErrors.EPath(geErrors.ErrIO, "read config file", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return geErrors.EPath(geErrors.ErrInvalidConfiguration, "parse config file", path, err)
	}
	return nil
}

// LoadFromEnvironment updates config from GESIGN_* environment variables
func (c *Config) LoadFromEnvironment() {
	c.KeyDir = getEnvString("KEY_DIR", c.KeyDir)
	c.KeyFiles = getEnvList("KEY_FILES", c.KeyFiles)
	c.IndexDir = getEnvString("INDEX_DIR", c.IndexDir)
	c.DirectDir = getEnvString("DIRECT_DIR", c.DirectDir)
	c.Clean = getEnvBool("CLEAN", c.Clean)
	c.Branch = getEnvString("BRANCH", c.Branch)
	c.Message = getEnvString("MESSAGE", c.Message)
	c.AuthorName = getEnvString("AUTHOR_NAME", c.AuthorName)
	c.AuthorEmail = getEnvString("AUTHOR_EMAIL", c.AuthorEmail)
	c.MaxAttempts = getEnvInt("MAX_ATTEMPTS", c.MaxAttempts)
	c.Debug = getEnvBool("DEBUG", c.Debug)
	c.LogFile = getEnvString("LOG_FILE", c.LogFile)
}

// SetupFlags sets up command-line flags to override config values
func (c *Config) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.KeyDir, "key-dir", c.KeyDir, "Directory holding the SSH keys (default: ~/.ssh)")
	fs.Func("keys", fmt.Sprintf("Comma-separated key file names, tried in order (default: %s)", strings.Join(c.KeyFiles, ",")), func(v string) error {
		c.KeyFiles = splitList(v)
		return nil
	})
	fs.StringVar(&c.IndexDir, "index-dir", c.IndexDir, "Repository created by the index backend")
	fs.StringVar(&c.DirectDir, "direct-dir", c.DirectDir, "Repository created by the direct object backend")
	fs.BoolVar(&c.Clean, "clean", c.Clean, "Remove the repository directories before creating them")
	fs.StringVar(&c.Branch, "branch", c.Branch, "Branch the commit is bound to")
	fs.StringVar(&c.Message, "m", c.Message, "Commit message")
	fs.StringVar(&c.AuthorName, "author-name", c.AuthorName, "Author and committer name")
	fs.StringVar(&c.AuthorEmail, "author-email", c.AuthorEmail, "Author and committer email")
	fs.IntVar(&c.MaxAttempts, "max-attempts", c.MaxAttempts, "Password attempts before giving up (0: unlimited)")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Enable debug logging")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Path to the debug log file")
}

// Validate checks the configuration for values the backends cannot work with.
func (c *Config) Validate() error {
	invalid := func(field string, format string, args ...interface{}) error {
		return geErrors.EPath(geErrors.ErrInvalidConfiguration, "validate config", field, fmt.Errorf(format, args...))
	}

	if len(c.KeyFiles) == 0 {
		return invalid("key_files", "at least one key file name is required")
	}
	for _, name := range c.KeyFiles {
		if name == "" || strings.ContainsRune(name, filepath.Separator) {
			return invalid("key_files", "invalid key file name %q", name)
		}
	}

	if c.IndexDir == "" || c.DirectDir == "" {
		return invalid("index_dir", "both repository directories are required")
	}
	indexAbs, err := filepath.Abs(c.IndexDir)
	if err != nil {
		return invalid("index_dir", "%v", err)
	}
	directAbs, err := filepath.Abs(c.DirectDir)
	if err != nil {
		return invalid("direct_dir", "%v", err)
	}
	if indexAbs == directAbs {
		return invalid("direct_dir", "index and direct repositories must differ (both %s)", indexAbs)
	}

	if err := plumbing.ValidateRefName(constants.HeadsPrefix + c.Branch); err != nil {
		return invalid("branch", "%v", err)
	}

	if strings.TrimSpace(c.AuthorName) == "" || strings.TrimSpace(c.AuthorEmail) == "" {
		return invalid("author_name", "author name and email are required")
	}
	if strings.ContainsAny(c.AuthorName+c.AuthorEmail, "<>\n") {
		return invalid("author_name", "author must not contain '<', '>' or newlines")
	}

	if c.MaxAttempts < 0 {
		return invalid("max_attempts", "must not be negative: %d", c.MaxAttempts)
	}
	return nil
}

// getEnvString returns an environment variable string or a default value
func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(EnvPrefix + key); exists {
		return value
	}
	return defaultValue
}

// getEnvList returns a comma-separated environment variable as a list or a default value
func getEnvList(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(EnvPrefix + key); exists {
		return splitList(value)
	}
	return defaultValue
}

// getEnvInt returns an environment variable as int or a default value
func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(EnvPrefix + key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

// getEnvBool returns an environment variable as bool or a default value
func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(EnvPrefix + key); exists {
		valueLower := strings.ToLower(valueStr)
		if valueLower == "true" || valueLower == "1" || valueLower == "yes" {
			return true
		}
		if valueLower == "false" || valueLower == "0" || valueLower == "no" {
			return false
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
