package plumbing

import (
	"bytes"
	"compress/zlib"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	geErrors "github.com/brickster241/GitSign/utils/errors"

	"github.com/brickster241/GitSign/utils/constants"
	"github.com/brickster241/GitSign/utils/types"
)

// objectHeader returns the canonical "<type> <size>\0" prefix.
func objectHeader(objType types.ObjectType, size int) []byte {
	return []byte(fmt.Sprintf("%s %d\x00", objType, size))
}

// HashObject computes the SHA-1 hash of a Git object WITHOUT writing it to disk. It constructs the canonical Git object format "<type> <size>\0<content>".
func HashObject(objType types.ObjectType, content []byte) ([20]byte, error) {
	if !objType.Valid() {
		return [20]byte{}, geErrors.E(geErrors.ErrEncoding, "hash object", fmt.Errorf("unsupported object type: %q", objType))
	}
	h := sha1.New()
	h.Write(objectHeader(objType, len(content)))
	h.Write(content)

	var sha [20]byte
	copy(sha[:], h.Sum(nil))
	return sha, nil
}

// objectPath returns .git/objects/aa/bbbb... for a SHA hex.
func (r *Repository) objectPath(hexSha string) string {
	return r.path("objects", hexSha[:2], hexSha[2:])
}

// HasObject reports whether the object is present in the object database.
func (r *Repository) HasObject(sha [20]byte) bool {
	_, err := os.Stat(r.objectPath(hex.EncodeToString(sha[:])))
	return err == nil
}

// WriteObject writes a Git object (blob, tree, or commit) to .git/objects. If the object already exists, it is NOT rewritten.
func (r *Repository) WriteObject(objType types.ObjectType, content []byte) ([20]byte, error) {

	// Get SHA-1 Hash for file content
	sha, err := HashObject(objType, content)
	if err != nil {
		return [20]byte{}, err
	}

	// Get SHA Hex, then calculate dir/path (aa/bbbbb....)
	hexSha := hex.EncodeToString(sha[:])
	filePath := r.objectPath(hexSha)
	dir := filepath.Dir(filePath)

	// If object already exists, do nothing
	if _, err := os.Stat(filePath); err == nil {
		return sha, nil
	} else if !os.IsNotExist(err) {
		return [20]byte{}, geErrors.EPath(geErrors.ErrObjectWrite, "stat object", hexSha, err)
	}

	if err := os.MkdirAll(dir, constants.DefaultDirPerm); err != nil {
		return [20]byte{}, geErrors.EPath(geErrors.ErrObjectWrite, "create object directory", hexSha, err)
	}

	// Z-lib compress "<type> <size>\0<content>"
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(objectHeader(objType, len(content))); err != nil {
		return [20]byte{}, geErrors.EPath(geErrors.ErrObjectWrite, "compress object", hexSha, err)
	}
	if _, err := w.Write(content); err != nil {
		return [20]byte{}, geErrors.EPath(geErrors.ErrObjectWrite, "compress object", hexSha, err)
	}
	if err := w.Close(); err != nil {
		return [20]byte{}, geErrors.EPath(geErrors.ErrObjectWrite, "compress object", hexSha, err)
	}

	// Write to a temp file in the same directory, then rename into place
	tmp, err := os.CreateTemp(dir, "tmp_obj_")
	if err != nil {
		return [20]byte{}, geErrors.EPath(geErrors.ErrObjectWrite, "create temp object", hexSha, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return [20]byte{}, geErrors.EPath(geErrors.ErrObjectWrite, "write object", hexSha, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return [20]byte{}, geErrors.EPath(geErrors.ErrObjectWrite, "write object", hexSha, err)
	}
	if err := os.Chmod(tmpName, 0o444); err != nil {
		os.Remove(tmpName)
		return [20]byte{}, geErrors.EPath(geErrors.ErrObjectWrite, "chmod object", hexSha, err)
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		os.Remove(tmpName)
		return [20]byte{}, geErrors.EPath(geErrors.ErrObjectWrite, "rename object", hexSha, err)
	}

	return sha, nil
}

// ReadObject reads and inflates a Git object from .git/objects. It returns: object type (blob/tree/commit), raw content (WITHOUT header), error if any
func (r *Repository) ReadObject(shaHex string) (types.ObjectType, []byte, error) {

	// Check SHA length
	if len(shaHex) != 40 {
		return "", nil, geErrors.EPath(geErrors.ErrEncoding, "read object", shaHex, fmt.Errorf("invalid SHA length"))
	}

	// Read File at path
	f, err := os.Open(r.objectPath(shaHex))
	if err != nil {
		return "", nil, geErrors.EPath(geErrors.ErrIO, "read object", shaHex, err)
	}
	defer f.Close()

	// Z-lib decompress and read the object
	zr, err := zlib.NewReader(f)
	if err != nil {
		return "", nil, geErrors.EPath(geErrors.ErrEncoding, "inflate object", shaHex, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return "", nil, geErrors.EPath(geErrors.ErrEncoding, "inflate object", shaHex, err)
	}

	// Split Header, Content -> then Header to parts
	nullIdx := bytes.IndexByte(data, 0)
	if nullIdx == -1 {
		return "", nil, geErrors.EPath(geErrors.ErrEncoding, "read object", shaHex, fmt.Errorf("corrupt object"))
	}

	header := string(data[:nullIdx])
	content := data[nullIdx+1:]

	parts := strings.Split(header, " ")
	if len(parts) != 2 {
		return "", nil, geErrors.EPath(geErrors.ErrEncoding, "read object", shaHex, fmt.Errorf("invalid object header"))
	}
	size, err := strconv.Atoi(parts[1])
	if err != nil || size != len(content) {
		return "", nil, geErrors.EPath(geErrors.ErrEncoding, "read object", shaHex, fmt.Errorf("object size mismatch"))
	}

	// Return ObjType and Content
	return types.ObjectType(parts[0]), content, nil
}
