package porcelain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/brickster241/GitSign/plumbing"
	"github.com/brickster241/GitSign/utils"
	geErrors "github.com/brickster241/GitSign/utils/errors"

	"github.com/brickster241/GitSign/utils/constants"
	"github.com/brickster241/GitSign/utils/types"
)

// catFileMode selects what cat-file prints.
type catFileMode int

const (
	catPretty catFileMode = iota
	catType
	catSize
	catSignature
)

// Invoked from main.go. CatFileRepoObject handles the 'gesign cat-file' command to display type, size, content or signature of a repository object.
func CatFileRepoObject(args []string) {
	const usageLine = "gesign cat-file [-C <dir>] (-p | -t | -s | -S) <object>"

	// Define flagset
	fls := utils.CreateCommandFlagSet("cat-file",
		"Output the contents or other properties such as size or type of an object. <object> is a full object id, a ref name, a branch name or HEAD.",
		usageLine)
	dir := fls.String("C", ".", "Run as if started in <dir>")
	pp := fls.Bool("p", false, "Pretty-print the contents of <object> based on its type.")
	size := fls.Bool("s", false, "Instead of the content, show the object size identified by <object>.")
	ty := fls.Bool("t", false, "Instead of the content, show the object type identified by <object>.")
	sig := fls.Bool("S", false, "Show the SSH signature embedded in the commit identified by <object>.")

	// Parse flags from args
	fls.Parse(args[1:])

	// Positional arguments (non-flag)
	pos := fls.Args()

	// Exactly one object and exactly one mode
	selected := 0
	mode := catPretty
	for _, f := range []struct {
		set  bool
		mode catFileMode
	}{{*pp, catPretty}, {*ty, catType}, {*size, catSize}, {*sig, catSignature}} {
		if f.set {
			selected++
			mode = f.mode
		}
	}
	if len(pos) != 1 || selected != 1 {
		usage(usageLine)
	}

	repo, err := plumbing.OpenRepository(*dir)
	if err != nil {
		fatal(err)
	}
	if err := catFile(repo, mode, pos[0], os.Stdout); err != nil {
		fatal(err)
	}
}

// resolveObject turns an object id, a full ref, a branch name or HEAD into an object id.
func resolveObject(repo *plumbing.Repository, name string) ([20]byte, error) {
	if sha, err := utils.ParseSHA(name); err == nil {
		return sha, nil
	}

	for _, ref := range []string{name, constants.HeadsPrefix + name} {
		if ref != constants.HeadRef && plumbing.ValidateRefName(ref) != nil {
			continue
		}
		sha, ok, err := repo.ResolveRef(ref)
		if err != nil {
			return [20]byte{}, err
		}
		if ok {
			return sha, nil
		}
	}
	return [20]byte{}, geErrors.EPath(geErrors.ErrIO, "resolve object", name, errors.New("not a valid object name"))
}

// catFile prints the requested view of object to w.
func catFile(repo *plumbing.Repository, mode catFileMode, object string, w io.Writer) error {
	sha, err := resolveObject(repo, object)
	if err != nil {
		return err
	}

	// Signature lives in the commit's gpgsig header
	if mode == catSignature {
		commit, err := repo.ReadCommit(sha)
		if err != nil {
			return err
		}
		armor, ok := commit.Header(constants.SignatureHeader)
		if !ok {
			return geErrors.EPath(geErrors.ErrEncoding, "show signature", hex.EncodeToString(sha[:]), fmt.Errorf("commit has no %s header", constants.SignatureHeader))
		}
		fmt.Fprintln(w, armor)
		return nil
	}

	// Get Object Type & Raw content
	objType, content, err := repo.ReadObject(hex.EncodeToString(sha[:]))
	if err != nil {
		return err
	}

	switch mode {
	case catSize:
		fmt.Fprintln(w, len(content))
	case catType:
		fmt.Fprintln(w, objType)
	default:
		if objType != types.TreeObject {
			fmt.Fprint(w, string(content))
			return nil
		}

		// ReadTree (single-level)
		entries, err := plumbing.DecodeTree(content)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(w, "%06o %s %x\t%s\n", e.Mode, e.Type, e.SHA, e.Name)
		}
	}
	return nil
}
