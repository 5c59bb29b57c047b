package plumbing

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	geErrors "github.com/brickster241/GitSign/utils/errors"

	"github.com/brickster241/GitSign/utils/constants"
	"github.com/brickster241/GitSign/utils/types"
)

// Repository is an on-disk repository rooted at WorkDir, with its metadata in GitDir.
type Repository struct {
	WorkDir string
	GitDir  string
}

// InitOptions controls InitRepository.
type InitOptions struct {
	Branch string         // initial branch HEAD points to, defaults to constants.DefaultBranch
	User   types.Identity // written to the [user] section when Name/Email are set
}

// path joins elem onto the repository's .git directory.
func (r *Repository) path(elem ...string) string {
	return filepath.Join(append([]string{r.GitDir}, elem...)...)
}

// OpenRepository opens an existing repository at dir. dir must contain a .git directory.
func OpenRepository(dir string) (*Repository, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, geErrors.EPath(geErrors.ErrIO, "resolve path", dir, err)
	}
	gitDir := filepath.Join(abs, constants.GitDir)

	info, err := os.Stat(gitDir)
	if err != nil {
		return nil, geErrors.EPath(geErrors.ErrIO, "open repository", abs, err)
	}
	if !info.IsDir() {
		return nil, geErrors.EPath(geErrors.ErrIO, "open repository", abs, geErrors.New("not a git repository"))
	}
	return &Repository{WorkDir: abs, GitDir: gitDir}, nil
}

// InitRepository creates (or reinitializes) a repository at dir. It returns true if a .git directory already existed.
func InitRepository(dir string, opts InitOptions) (*Repository, bool, error) {

	// Resolve absolute path, clean path
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, false, geErrors.EPath(geErrors.ErrIO, "resolve path", dir, err)
	}
	abs = filepath.Clean(abs)

	// Check whether .git already exists
	reinitialize := false
	if _, err := os.Stat(filepath.Join(abs, constants.GitDir)); err == nil {
		reinitialize = true
	}

	// Create the necessary directories
	for _, p := range constants.Dir_paths {
		if err := os.MkdirAll(filepath.Join(abs, p), constants.DefaultDirPerm); err != nil {
			return nil, false, geErrors.EPath(geErrors.ErrIO, "create directory", p, err)
		}
	}

	repo := &Repository{WorkDir: abs, GitDir: filepath.Join(abs, constants.GitDir)}

	branch := opts.Branch
	if branch == "" {
		branch = constants.DefaultBranch
	}
	if err := ValidateRefName(constants.HeadsPrefix + branch); err != nil {
		return nil, false, err
	}

	// HEAD is left alone on re-init, like git does
	headPath := repo.path(constants.HeadRef)
	if _, err := os.Stat(headPath); os.IsNotExist(err) {
		head := constants.SymRefPrefix + constants.HeadsPrefix + branch + "\n"
		if err := os.WriteFile(headPath, []byte(head), constants.DefaultFilePerm); err != nil {
			return nil, false, geErrors.EPath(geErrors.ErrIO, "write HEAD", headPath, err)
		}
	}

	if err := repo.writeInitialConfig(opts.User); err != nil {
		return nil, false, err
	}
	return repo, reinitialize, nil
}

// writeInitialConfig writes the core section and, when given, the user identity into .git/config.
func (r *Repository) writeInitialConfig(user types.Identity) error {
	cfg, err := r.loadConfig()
	if err != nil {
		return err
	}

	core := cfg.Section("core")
	for _, kv := range [][2]string{
		{"repositoryformatversion", "0"},
		{"filemode", "true"},
		{"bare", "false"},
		{"logallrefupdates", "true"},
	} {
		if !core.HasKey(kv[0]) {
			core.Key(kv[0]).SetValue(kv[1])
		}
	}

	if strings.TrimSpace(user.Name) != "" {
		cfg.Section("user").Key("name").SetValue(user.Name)
	}
	if strings.TrimSpace(user.Email) != "" {
		cfg.Section("user").Key("email").SetValue(user.Email)
	}
	return r.saveConfig(cfg)
}

// loadConfig reads .git/config, returning an empty file when it does not exist yet.
func (r *Repository) loadConfig() (*ini.File, error) {
	cfgPath := r.path("config")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return ini.Empty(), nil
	}

	cfg, err := ini.Load(cfgPath)
	if err != nil {
		return nil, geErrors.EPath(geErrors.ErrIO, "load config", cfgPath, err)
	}
	return cfg, nil
}

// saveConfig writes cfg back to .git/config.
func (r *Repository) saveConfig(cfg *ini.File) error {
	cfgPath := r.path("config")
	if err := cfg.SaveTo(cfgPath); err != nil {
		return geErrors.EPath(geErrors.ErrIO, "save config", cfgPath, err)
	}
	return nil
}
