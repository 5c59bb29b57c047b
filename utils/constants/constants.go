package constants

const (
	ModeFile        = 0o100644
	ModeExecutable  = 0o100755
	ModeSymlink     = 0o120000
	ModeTree        = 0o040000
	ModeGitlink     = 0o160000
	DefaultFilePerm = 0o644 // rw-r--r--
	DefaultDirPerm  = 0o755 // rwxr-xr-x
	ResetColor      = "\033[0m"
	BoldColor       = "\033[1m"
	GreenColor      = "\033[32m"
	RedColor        = "\033[31m"
	GitDir          = ".git"
	HeadRef         = "HEAD"
	HeadsPrefix     = "refs/heads/"
	SymRefPrefix    = "ref: "
	DefaultBranch   = "main"
	DefaultMessage  = "Initial commit"
	EmptyTreeHex    = "4b825dc642cb6eb9a060e54bf8d69288fbee4904" // SHA-1 of "tree 0\x00"
	SignatureHeader = "gpgsig"                                   // Extra header carrying the armored signature
	SigNamespace    = "git"                                      // SSHSIG namespace used for commits
)

// Define the necessary directory structure
var Dir_paths = []string{
	".git",
	".git/objects",
	".git/objects/info",
	".git/refs",
	".git/refs/heads",
	".git/refs/tags",
	".git/logs",
}

// Well-known private key file names, in lookup order.
var KeyFiles = []string{
	"id_ed25519",
	"id_ecdsa",
	"id_rsa",
}
