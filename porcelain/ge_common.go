package porcelain

import (
	"fmt"
	"os"

	geErrors "github.com/brickster241/GitSign/utils/errors"
	"github.com/brickster241/GitSign/utils/logger"
)

// fatal prints err the way git reports unrecoverable errors and exits.
func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal:", err)
	if h := hint(err); h != "" {
		fmt.Fprintln(os.Stderr, "hint:", h)
	}
	os.Exit(exitStatus(err))
}

// usage prints the usage line and exits with status 1.
func usage(line string) {
	fmt.Fprintln(os.Stderr, "usage:", line)
	os.Exit(1)
}

// errUsage marks bad command-line input that should print the usage line.
var errUsage = geErrors.New("invalid usage")

// hint returns advice for the error kinds a user can act on, or "".
func hint(err error) string {
	switch geErrors.KindOf(err) {
	case geErrors.ErrKeyNotFound:
		return "create a key with 'ssh-keygen -t ed25519' or point -key-dir at an existing one"
	case geErrors.ErrDecryptionFailed:
		return "raise -max-attempts, or set it to 0 to keep asking"
	case geErrors.ErrRefConflict:
		return "the branch already exists; drop -clean=false to recreate the repositories"
	}
	return ""
}

// exitStatus maps err to the process exit status. A cancelled prompt exits like SIGINT.
func exitStatus(err error) int {
	if geErrors.KindOf(err) == geErrors.ErrCancelled {
		return 130
	}
	return 1
}

// reportFailure prints err and its hint through log and returns the exit status.
func reportFailure(log logger.Logger, err error) int {
	log.Error("%v", err)
	if h := hint(err); h != "" {
		log.StatusMessage("hint: %s", h)
	}
	return exitStatus(err)
}
