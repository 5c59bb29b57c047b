package plumbing

import (
	"fmt"
	"strings"
	"time"

	geErrors "github.com/brickster241/GitSign/utils/errors"

	"github.com/brickster241/GitSign/utils/types"
)

// splitConfigKey splits "section.name" into its two parts.
func splitConfigKey(key string) (string, string, error) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", geErrors.E(geErrors.ErrInvalidConfiguration, "parse config key", fmt.Errorf("invalid config key: %s", key))
	}
	return parts[0], parts[1], nil
}

// GetConfig returns the value for a specific "section.name" key in .git/config.
func (r *Repository) GetConfig(key string) (string, error) {
	section, name, err := splitConfigKey(key)
	if err != nil {
		return "", err
	}

	cfg, err := r.loadConfig()
	if err != nil {
		return "", err
	}

	// Check val for specific key
	val := cfg.Section(section).Key(name).String()
	if val == "" {
		return "", geErrors.E(geErrors.ErrInvalidConfiguration, "get config", fmt.Errorf("config key not found: %s", key))
	}
	return val, nil
}

// SetConfig sets the value for a specific "section.name" key in .git/config.
func (r *Repository) SetConfig(key, value string) error {
	section, name, err := splitConfigKey(key)
	if err != nil {
		return err
	}

	cfg, err := r.loadConfig()
	if err != nil {
		return err
	}

	cfg.Section(section).Key(name).SetValue(value)
	return r.saveConfig(cfg)
}

// ConfigBool reads a boolean key, falling back to def when the key is missing or unparsable.
func (r *Repository) ConfigBool(key string, def bool) bool {
	section, name, err := splitConfigKey(key)
	if err != nil {
		return def
	}
	cfg, err := r.loadConfig()
	if err != nil {
		return def
	}
	return cfg.Section(section).Key(name).MustBool(def)
}

// Signature builds an Identity from user.name / user.email in .git/config, stamped with when.
func (r *Repository) Signature(when time.Time) (types.Identity, error) {

	// Get user.name
	name, err := r.GetConfig("user.name")
	if err != nil {
		return types.Identity{}, err
	}

	// Get user.email
	email, err := r.GetConfig("user.email")
	if err != nil {
		return types.Identity{}, err
	}

	return types.Identity{
		Name:  name,
		Email: email,
		When:  CommitTime(when),
	}, nil
}
