package main

import (
	"fmt"
	"os"

	"github.com/brickster241/GitSign/porcelain"
)

const usageLine = "usage: gesign <command> [<args>]"

// Entry point of the application - Check for all commands.
func main() {

	// When you create a build, the first argument is always the name of the executable.
	if len(os.Args) == 1 {

		// No arguments provided
		fmt.Printf("gesign: command cannot be empty. See 'gesign help' for available commands.\n")
		fmt.Println(usageLine)
		os.Exit(0)
	}
	switch os.Args[1] {

	case "bootstrap":
		// Create the signed bootstrap commit with both backends
		porcelain.Bootstrap(os.Args[1:])
	case "init":
		// Initialize a new repository
		porcelain.InitRepo(os.Args[1:])
	case "config":
		// Get or Set keys in .git/config
		porcelain.GetOrSetConfig(os.Args[1:])
	case "cat-file":
		// Show type, size, content or signature for repository objects
		porcelain.CatFileRepoObject(os.Args[1:])
	case "write-tree":
		// Write the index as a tree object
		porcelain.WriteTreeFromIndex(os.Args[1:])
	case "help":
		fmt.Println(usageLine)
		fmt.Println()
		fmt.Println("   bootstrap    Create two repositories holding an SSH-signed initial commit")
		fmt.Println("   init         Create an empty repository or reinitialize an existing one")
		fmt.Println("   config       Get and set repository options")
		fmt.Println("   cat-file     Show content, type, size or signature of an object")
		fmt.Println("   write-tree   Create a tree object from the current index")
	default:
		// Command not found
		fmt.Printf("gesign: '%s' is not a gesign command. See 'gesign help' for available commands.\n", os.Args[1])
		fmt.Println(usageLine)
		os.Exit(1)
	}
}
