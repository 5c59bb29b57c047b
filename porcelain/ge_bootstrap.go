package porcelain

import (
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/brickster241/GitSign/backend"
	"github.com/brickster241/GitSign/plumbing"
	"github.com/brickster241/GitSign/sshkey"
	"github.com/brickster241/GitSign/utils"
	"github.com/brickster241/GitSign/utils/config"
	geErrors "github.com/brickster241/GitSign/utils/errors"
	"github.com/brickster241/GitSign/utils/logger"

	"github.com/brickster241/GitSign/utils/types"
)

// Invoked from main.go. Bootstrap handles the 'gesign bootstrap' command: it loads the user's SSH key, unlocks it
// if needed and creates one signed initial commit with each backend.
func Bootstrap(args []string) {

	cfg := config.New()

	// Config file: $GESIGN_CONFIG, else the default location when it exists
	path, explicit := os.LookupEnv(config.EnvPrefix + "CONFIG")
	if !explicit {
		path = config.DefaultFile()
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
			fatal(err)
		}
	}
	cfg.LoadFromEnvironment()

	// Define flagset
	fls := utils.CreateCommandFlagSet("bootstrap",
		"Creates two fresh repositories, each holding a single empty-tree commit signed with your SSH key. The first is built through the index, the second by writing objects and references directly.",
		"gesign bootstrap [options]")
	cfg.SetupFlags(fls)
	fls.Parse(args[1:])

	if len(fls.Args()) != 0 {
		usage("gesign bootstrap [options]")
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	log := logger.New(cfg.Debug, cfg.LogFile, cfg.Debug)
	defer log.Close()

	if err := RunBootstrap(cfg, sshkey.NewTerminalPrompter(), log); err != nil {
		status := reportFailure(log, err)
		log.Close()
		os.Exit(status)
	}
}

// RunBootstrap loads and unlocks the key described by cfg, then runs both backends in order. Each successful
// backend prints "created with <NAME> at: <dir>".
func RunBootstrap(cfg *config.Config, prompter sshkey.Prompter, log logger.Logger) error {
	ks, err := sshkey.NewKeyStore(cfg.KeyDir, cfg.KeyFiles...)
	if err != nil {
		return err
	}

	key, err := ks.Load()
	if err != nil {
		return err
	}
	log.Info("loaded %s key from %s (encrypted: %t)", key.Algorithm, key.Path, key.IsEncrypted())

	unlocker := &sshkey.Unlocker{
		Prompter:    prompter,
		MaxAttempts: cfg.MaxAttempts,
		OnRetry: func(attempt int, err error) {
			log.Info("password attempt %d failed: %v", attempt, err)
			log.WarningToUser("wrong password")
		},
	}
	key, err = unlocker.Unlock(key)
	if err != nil {
		if geErrors.Is(err, geErrors.ErrCancelled) {
			log.Info("password prompt cancelled")
		}
		return err
	}

	identity := types.Identity{Name: cfg.AuthorName, Email: cfg.AuthorEmail}
	options := func(dir string) backend.Options {
		return backend.Options{
			Dir:      dir,
			Branch:   cfg.Branch,
			Message:  cfg.Message,
			Identity: identity,
			Now:      time.Now,
			Logger:   log,
		}
	}

	for _, b := range []backend.Backend{
		backend.NewIndexBackend(options(cfg.IndexDir)),
		backend.NewDirectObjectBackend(options(cfg.DirectDir)),
	} {
		if !cfg.Clean {
			if _, err := os.Stat(b.Dir()); err == nil {
				log.InfoToUser("reusing existing directory %s", b.Dir())
			}
		}
		if err := backend.PrepareDir(b.Dir(), cfg.Clean); err != nil {
			return err
		}
		commit, err := backend.Run(b, key)
		if err != nil {
			return err
		}
		log.Info("%s backend created commit %x", b.Name(), commit)
		if err := verifyCommit(b.Dir(), commit, key); err != nil {
			return err
		}
		log.Success("created with %s at: %s", b.Name(), b.Dir())
	}
	return nil
}

// verifyCommit reads commit back from the repository in dir and checks its signature against key.
func verifyCommit(dir string, commit [20]byte, key *sshkey.PrivateKey) error {
	repo, err := plumbing.OpenRepository(dir)
	if err != nil {
		return err
	}
	_, data, err := repo.ReadObject(hex.EncodeToString(commit[:]))
	if err != nil {
		return err
	}
	return plumbing.VerifyCommitSignature(data, key.PublicKey())
}
