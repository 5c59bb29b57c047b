package sshkey

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	geErrors "github.com/brickster241/GitSign/utils/errors"

	"github.com/brickster241/GitSign/utils/constants"
)

// KeyStore looks up a private key among a fixed, ordered list of file names in Directory.
type KeyStore struct {
	Directory string
	Names     []string
}

// DefaultDirectory returns ~/.ssh.
func DefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", geErrors.E(geErrors.ErrIO, "locate home directory", err)
	}
	return filepath.Join(homeDir, ".ssh"), nil
}

// NewKeyStore creates a KeyStore. An empty directory means ~/.ssh, no names means
// id_ed25519, id_ecdsa, id_rsa in that order.
func NewKeyStore(directory string, names ...string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	if len(names) == 0 {
		names = constants.KeyFiles
	}
	return &KeyStore{Directory: directory, Names: append([]string(nil), names...)}, nil
}

// Candidates returns the full paths Load tries, in order.
func (ks *KeyStore) Candidates() []string {
	paths := make([]string, 0, len(ks.Names))
	for _, name := range ks.Names {
		paths = append(paths, filepath.Join(ks.Directory, name))
	}
	return paths
}

// Load reads and parses the first key file that exists. The key may still be encrypted.
func (ks *KeyStore) Load() (*PrivateKey, error) {
	for _, path := range ks.Candidates() {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, geErrors.EPath(geErrors.ErrIO, "read private key", path, err)
		}

		key, err := ParsePrivateKey(data)
		if err != nil {
			return nil, geErrors.Wrapf(err, "key %s", path)
		}
		key.Path = path
		return key, nil
	}

	return nil, geErrors.EPath(geErrors.ErrKeyNotFound, "load private key", ks.Directory, nil)
}
