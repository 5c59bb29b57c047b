package porcelain

import (
	"fmt"
	"io"
	"os"

	"github.com/brickster241/GitSign/plumbing"
	"github.com/brickster241/GitSign/utils"
)

// Invoked from main.go. InitRepo handles the 'gesign init' command to create an empty repository or reinitialize an existing one.
func InitRepo(args []string) {

	// Define flagset
	fls := utils.CreateCommandFlagSet("init",
		"This command creates an empty Git repository or reinitializes it - basically a .git directory with subdirectories for objects, refs/heads, refs/tags, logs, HEAD and config files. An initial branch without any commits will be created.",
		"gesign init [-b <branch>] [<directory>]")
	branch := fls.String("b", "", "Name of the initial branch (default: main)")
	fls.Parse(args[1:])

	// Positional arguments (non-flag)
	pos := fls.Args()

	// Determine repository path
	repoPath := "."
	switch len(pos) {
	case 0:
	case 1:
		repoPath = pos[0]
	default:
		usage("gesign init [-b <branch>] [<directory>]")
	}

	if err := initRepository(repoPath, *branch, os.Stdout); err != nil {
		fatal(err)
	}
}

// initRepository initializes dir and reports the outcome on w.
func initRepository(dir, branch string, w io.Writer) error {
	repo, reinit, err := plumbing.InitRepository(dir, plumbing.InitOptions{Branch: branch})
	if err != nil {
		return err
	}

	// Success message
	if reinit {
		fmt.Fprintf(w, "Reinitialized existing Git repository in %s\n", repo.GitDir)
	} else {
		fmt.Fprintf(w, "Initialized empty Git repository in %s\n", repo.GitDir)
	}
	return nil
}
