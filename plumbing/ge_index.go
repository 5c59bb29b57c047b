package plumbing

import (
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	geErrors "github.com/brickster241/GitSign/utils/errors"

	"github.com/brickster241/GitSign/utils/constants"
	"github.com/brickster241/GitSign/utils/types"
)

// LoadIndex reads the index file and returns the list of IndexEntry.
func (r *Repository) LoadIndex() ([]types.IndexEntry, error) {

	indexPath := r.path("index")
	if _, err := os.Stat(indexPath); errors.Is(err, os.ErrNotExist) {
		return []types.IndexEntry{}, nil // No index file yet
	}

	// Read the entire index file
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, geErrors.EPath(geErrors.ErrIO, "read index", indexPath, err)
	}
	return parseIndex(data)
}

// parseIndex decodes a version 2 DIRC index, verifying its trailing checksum.
func parseIndex(data []byte) ([]types.IndexEntry, error) {
	bad := func(format string, args ...interface{}) error {
		return geErrors.E(geErrors.ErrEncoding, "parse index", fmt.Errorf(format, args...))
	}

	// Check index file size
	if len(data) < 12+20 {
		return nil, bad("index file is too short")
	}

	// Validate header, version and get entry count
	if string(data[:4]) != "DIRC" {
		return nil, bad("invalid index file header")
	}

	version := binary.BigEndian.Uint32(data[4:8])
	if version != 2 {
		return nil, bad("unsupported index version: %d", version)
	}

	content := data[:len(data)-20]
	if sum := sha1.Sum(content); string(sum[:]) != string(data[len(data)-20:]) {
		return nil, bad("index checksum mismatch")
	}

	entryCount := binary.BigEndian.Uint32(data[8:12])
	entries := make([]types.IndexEntry, 0, entryCount)
	offset := 12

	// Loop through entries
	for i := uint32(0); i < entryCount; i++ {
		entryStart := offset // Track where this entry starts
		if offset+62 > len(content) {
			return nil, bad("corrupt index entry")
		}

		// Read fixed-size fields
		var ie types.IndexEntry
		fields := []*uint32{&ie.Ctime, &ie.CtimeNs, &ie.Mtime, &ie.MtimeNs, &ie.Dev, &ie.Ino, &ie.Mode, &ie.Uid, &ie.Gid, &ie.FileSize}
		for _, f := range fields {
			*f = binary.BigEndian.Uint32(content[offset:])
			offset += 4
		}

		copy(ie.SHA1[:], content[offset:offset+20])
		offset += 20

		// Read flags, including filename length
		ie.Flags = binary.BigEndian.Uint16(content[offset:])
		offset += 2

		start := offset
		for offset < len(content) && content[offset] != 0 {
			offset++
		}
		if offset >= len(content) {
			return nil, bad("unterminated filename in index")
		}

		ie.Filename = string(content[start:offset])
		offset++ // Skip null terminator

		// Align to next multiple of 8 bytes FROM THE ENTRY START
		for (offset-entryStart)%8 != 0 {
			offset++
		}

		entries = append(entries, ie)
	}

	return entries, nil
}

// WriteIndex writes entries back to .git/index (handles adding each entry + checksum)
func (r *Repository) WriteIndex(entries []types.IndexEntry) error {

	var buffer []byte

	// 12-byte header: "DIRC" + version(2) + entry count
	buffer = append(buffer, []byte("DIRC")...)
	buffer = binary.BigEndian.AppendUint32(buffer, 2)
	buffer = binary.BigEndian.AppendUint32(buffer, uint32(len(entries)))

	for _, entry := range entries {

		entryStart := len(buffer)

		// 40 bytes of metadata
		for _, v := range []uint32{entry.Ctime, entry.CtimeNs, entry.Mtime, entry.MtimeNs, entry.Dev, entry.Ino, entry.Mode, entry.Uid, entry.Gid, entry.FileSize} {
			buffer = binary.BigEndian.AppendUint32(buffer, v)
		}

		// 20 bytes SHA-1
		buffer = append(buffer, entry.SHA1[:]...)

		// Flags field only has 12 bits for length (max 4095)
		nameLen := len(entry.Filename)
		if nameLen > 0xFFF {
			nameLen = 0xFFF
		}
		buffer = binary.BigEndian.AppendUint16(buffer, uint16(nameLen))

		// Write the FULL filename (not truncated!) plus null terminator
		buffer = append(buffer, []byte(entry.Filename)...)
		buffer = append(buffer, 0x00)

		// Padding: entries must be padded to multiple of 8 bytes from entryStart
		entryLen := len(buffer) - entryStart
		padLen := (8 - (entryLen % 8)) % 8
		buffer = append(buffer, make([]byte, padLen)...)
	}

	// 20-byte SHA-1 checksum of all previous contents
	hash := sha1.Sum(buffer)
	buffer = append(buffer, hash[:]...)

	indexPath := r.path("index")
	if err := os.WriteFile(indexPath, buffer, constants.DefaultFilePerm); err != nil {
		return geErrors.EPath(geErrors.ErrIO, "write index", indexPath, err)
	}
	return nil
}
