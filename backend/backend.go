// Package backend creates a signed bootstrap commit in a fresh repository. Two backends share the
// signing semantics but build and store the commit differently: IndexBackend goes through the index
// and the commit buffer facility, DirectObjectBackend writes tree and commit objects itself and
// binds HEAD with a guarded reference edit.
package backend

import (
	"encoding/hex"
	"os"
	"time"

	"github.com/brickster241/GitSign/plumbing"
	geErrors "github.com/brickster241/GitSign/utils/errors"
	"github.com/brickster241/GitSign/utils/logger"

	"github.com/brickster241/GitSign/utils/constants"
	"github.com/brickster241/GitSign/utils/types"
)

// Backend is one way of producing the bootstrap commit. Run calls the methods in declaration order.
type Backend interface {
	// Name is the label printed once the repository is created, e.g. "INDEX".
	Name() string

	// Dir is the repository's working directory.
	Dir() string

	// InitRepo creates the repository.
	InitRepo() error

	// WriteEmptyTree stores the empty tree and returns its id.
	WriteEmptyTree() ([20]byte, error)

	// PersistSignedCommit signs a root commit of tree and stores the signed form.
	PersistSignedCommit(tree [20]byte, signer plumbing.Signer) ([20]byte, error)

	// BindReference points the configured branch at commit.
	BindReference(commit [20]byte) error
}

// Options configures a backend.
type Options struct {
	Dir      string
	Branch   string         // defaults to constants.DefaultBranch
	Message  string         // defaults to constants.DefaultMessage
	Identity types.Identity // author and committer; When is taken from Now
	Now      func() time.Time
	Logger   logger.Logger
}

func (o Options) withDefaults() Options {
	if o.Branch == "" {
		o.Branch = constants.DefaultBranch
	}
	if o.Message == "" {
		o.Message = constants.DefaultMessage
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	return o
}

// identity returns the configured identity stamped with the current time.
func (o Options) identity() types.Identity {
	id := o.Identity
	id.When = plumbing.CommitTime(o.Now())
	return id
}

// notInitialized is returned when a step runs before InitRepo.
func notInitialized(name string) error {
	return geErrors.E(geErrors.ErrIO, name, geErrors.New("repository not initialized"))
}

// requireCommit refuses to bind a reference to an object missing from the store.
func requireCommit(repo *plumbing.Repository, commit [20]byte) error {
	if repo.HasObject(commit) {
		return nil
	}
	return geErrors.EPath(geErrors.ErrIO, "update reference", shortID(commit), geErrors.New("commit is not in the object store"))
}

// Run drives b through every step and returns the id of the bound commit.
func Run(b Backend, signer plumbing.Signer) ([20]byte, error) {
	if err := b.InitRepo(); err != nil {
		return [20]byte{}, geErrors.Wrapf(err, "%s: init repository", b.Name())
	}

	tree, err := b.WriteEmptyTree()
	if err != nil {
		return [20]byte{}, geErrors.Wrapf(err, "%s: write tree", b.Name())
	}

	commit, err := b.PersistSignedCommit(tree, signer)
	if err != nil {
		return [20]byte{}, geErrors.Wrapf(err, "%s: write commit", b.Name())
	}

	if err := b.BindReference(commit); err != nil {
		return [20]byte{}, geErrors.Wrapf(err, "%s: update reference", b.Name())
	}
	return commit, nil
}

// PrepareDir makes sure dir exists. With clean, anything already there is removed first.
func PrepareDir(dir string, clean bool) error {
	if clean {
		if err := os.RemoveAll(dir); err != nil {
			return geErrors.EPath(geErrors.ErrIO, "remove directory", dir, err)
		}
	}
	if err := os.MkdirAll(dir, constants.DefaultDirPerm); err != nil {
		return geErrors.EPath(geErrors.ErrIO, "create directory", dir, err)
	}
	return nil
}

func shortID(sha [20]byte) string {
	return hex.EncodeToString(sha[:])[:7]
}
