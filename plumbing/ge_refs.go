package plumbing

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	geErrors "github.com/brickster241/GitSign/utils/errors"

	"github.com/brickster241/GitSign/utils"
	"github.com/brickster241/GitSign/utils/constants"
	"github.com/brickster241/GitSign/utils/types"
)

// maxSymrefDepth bounds symbolic ref chains.
const maxSymrefDepth = 5

// ValidateRefName applies the rules of git check-ref-format to a full ref name.
func ValidateRefName(name string) error {
	bad := func(reason string) error {
		return geErrors.EPath(geErrors.ErrInvalidConfiguration, "validate ref name", name, errors.New(reason))
	}

	if name == "" || name == "@" {
		return bad("empty or reserved name")
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") || strings.HasSuffix(name, ".") {
		return bad("must not begin or end with '/' or end with '.'")
	}
	if strings.Contains(name, "..") || strings.Contains(name, "//") || strings.Contains(name, "@{") {
		return bad("contains '..', '//' or '@{'")
	}
	for _, c := range name {
		if c < 0x20 || c == 0x7f || strings.ContainsRune(" ~^:?*[\\", c) {
			return bad(fmt.Sprintf("contains forbidden character %q", c))
		}
	}
	for _, component := range strings.Split(name, "/") {
		if strings.HasPrefix(component, ".") || strings.HasSuffix(component, ".lock") {
			return bad("component begins with '.' or ends with '.lock'")
		}
	}
	return nil
}

// readRefFile returns the trimmed contents of a loose ref, and false if it does not exist.
func (r *Repository) readRefFile(name string) (string, bool, error) {
	data, err := os.ReadFile(r.path(filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, geErrors.EPath(geErrors.ErrIO, "read ref", name, err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// ReadHEAD reads .git/HEAD and determines whether HEAD is detached.
func (r *Repository) ReadHEAD() (*types.HeadInfo, error) {
	line, ok, err := r.readRefFile(constants.HeadRef)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, geErrors.EPath(geErrors.ErrIO, "read HEAD", r.GitDir, fs.ErrNotExist)
	}

	// Symbolic Ref
	if strings.HasPrefix(line, constants.SymRefPrefix) {
		return &types.HeadInfo{Ref: strings.TrimPrefix(line, constants.SymRefPrefix)}, nil
	}

	// Detached HEAD
	sha, err := utils.ParseSHA(line)
	if err != nil {
		return nil, geErrors.E(geErrors.ErrEncoding, "read HEAD", fmt.Errorf("invalid HEAD contents: %w", err))
	}
	return &types.HeadInfo{SHA: sha, Detached: true}, nil
}

// resolveTarget follows symbolic refs starting at name and returns the name of the ref that holds (or will hold) an object id.
func (r *Repository) resolveTarget(name string) (string, error) {
	for depth := 0; depth < maxSymrefDepth; depth++ {
		line, ok, err := r.readRefFile(name)
		if err != nil {
			return "", err
		}
		if !ok || !strings.HasPrefix(line, constants.SymRefPrefix) {
			return name, nil
		}
		name = strings.TrimPrefix(line, constants.SymRefPrefix)
	}
	return "", geErrors.EPath(geErrors.ErrEncoding, "resolve ref", name, errors.New("symbolic ref chain too deep"))
}

// ResolveRef returns the object id name points to, following symbolic refs. The bool is false for a missing (unborn) ref.
func (r *Repository) ResolveRef(name string) ([20]byte, bool, error) {
	target, err := r.resolveTarget(name)
	if err != nil {
		return [20]byte{}, false, err
	}
	line, ok, err := r.readRefFile(target)
	if err != nil || !ok {
		return [20]byte{}, false, err
	}
	sha, err := utils.ParseSHA(line)
	if err != nil {
		return [20]byte{}, false, geErrors.EPath(geErrors.ErrEncoding, "resolve ref", target, err)
	}
	return sha, true, nil
}

type previousKind int

const (
	previousAny previousKind = iota
	previousMustNotExist
	previousMustExistAndMatch
)

// PreviousValue is the precondition a RefEdit places on the ref's current value.
type PreviousValue struct {
	kind previousKind
	old  [20]byte
}

var (
	// Any accepts whatever the ref currently holds, including nothing.
	Any = PreviousValue{kind: previousAny}

	// MustNotExist fails the edit if the ref already exists.
	MustNotExist = PreviousValue{kind: previousMustNotExist}
)

// MustExistAndMatch fails the edit unless the ref currently holds old.
func MustExistAndMatch(old [20]byte) PreviousValue {
	return PreviousValue{kind: previousMustExistAndMatch, old: old}
}

func (p PreviousValue) String() string {
	switch p.kind {
	case previousMustNotExist:
		return "must not exist"
	case previousMustExistAndMatch:
		return "must exist and match " + hex.EncodeToString(p.old[:])
	}
	return "any"
}

// check returns ErrRefConflict when current violates the precondition.
func (p PreviousValue) check(name string, current [20]byte, exists bool) error {
	switch p.kind {
	case previousMustNotExist:
		if exists {
			return geErrors.EPath(geErrors.ErrRefConflict, "update ref", name,
				fmt.Errorf("reference already exists at %x", current))
		}
	case previousMustExistAndMatch:
		if !exists {
			return geErrors.EPath(geErrors.ErrRefConflict, "update ref", name, errors.New("reference does not exist"))
		}
		if current != p.old {
			return geErrors.EPath(geErrors.ErrRefConflict, "update ref", name,
				fmt.Errorf("reference is at %x, expected %x", current, p.old))
		}
	}
	return nil
}

// LogChange describes the reflog line written alongside a ref update.
type LogChange struct {
	Message   string
	Committer types.Identity
	Force     bool // write the reflog even when core.logallrefupdates is off
}

// RefEdit is a single guarded ref update.
type RefEdit struct {
	Name     string // full ref name, e.g. "HEAD" or "refs/heads/main"
	Deref    bool   // follow symbolic refs and update the ref they point to
	New      [20]byte
	Expected PreviousValue
	Log      *LogChange // nil writes no reflog
}

// EditReference applies edit under a lock file. The precondition is checked while the lock is held.
// When a symbolic ref is dereferenced, both it and its target get a reflog entry.
func (r *Repository) EditReference(edit RefEdit) error {
	target := edit.Name
	if edit.Deref {
		var err error
		if target, err = r.resolveTarget(edit.Name); err != nil {
			return err
		}
	}
	if target != constants.HeadRef {
		if err := ValidateRefName(target); err != nil {
			return err
		}
	}

	refPath := r.path(filepath.FromSlash(target))
	if err := os.MkdirAll(filepath.Dir(refPath), constants.DefaultDirPerm); err != nil {
		return geErrors.EPath(geErrors.ErrIO, "create ref directory", target, err)
	}

	// Take the lock
	lockPath := refPath + ".lock"
	lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, constants.DefaultFilePerm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return geErrors.EPath(geErrors.ErrIO, "cannot lock ref", target, fmt.Errorf("%s exists", lockPath))
		}
		return geErrors.EPath(geErrors.ErrIO, "cannot lock ref", target, err)
	}
	committed := false
	defer func() {
		if !committed {
			lock.Close()
			os.Remove(lockPath)
		}
	}()

	// Check the precondition against what is on disk now
	current, exists, err := r.ResolveRef(target)
	if err != nil {
		return err
	}
	if err := edit.Expected.check(target, current, exists); err != nil {
		return err
	}

	if _, err := lock.WriteString(hex.EncodeToString(edit.New[:]) + "\n"); err != nil {
		return geErrors.EPath(geErrors.ErrIO, "write ref", target, err)
	}
	if err := lock.Sync(); err != nil {
		return geErrors.EPath(geErrors.ErrIO, "write ref", target, err)
	}
	if err := lock.Close(); err != nil {
		os.Remove(lockPath)
		committed = true
		return geErrors.EPath(geErrors.ErrIO, "write ref", target, err)
	}
	committed = true
	if err := os.Rename(lockPath, refPath); err != nil {
		os.Remove(lockPath)
		return geErrors.EPath(geErrors.ErrIO, "commit ref", target, err)
	}

	if edit.Log == nil || !(edit.Log.Force || r.ConfigBool("core.logallrefupdates", true)) {
		return nil
	}
	entry := ReflogEntry{Old: current, New: edit.New, Committer: edit.Log.Committer, Message: edit.Log.Message}
	if err := r.AppendReflog(target, entry); err != nil {
		return err
	}
	if target != edit.Name {
		return r.AppendReflog(edit.Name, entry)
	}
	return nil
}

// CreateBranch points refs/heads/<name> at sha. Without force an existing branch is a RefConflict.
func (r *Repository) CreateBranch(name string, sha [20]byte, force bool, committer types.Identity) error {
	expected := MustNotExist
	if force {
		expected = Any
	}
	return r.EditReference(RefEdit{
		Name:     constants.HeadsPrefix + name,
		New:      sha,
		Expected: expected,
		Log: &LogChange{
			Message:   "branch: Created from " + hex.EncodeToString(sha[:]),
			Committer: committer,
		},
	})
}
