package utils

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/brickster241/GitSign/utils/constants"
)

// Utility function to create a new flag set, Will be used once per command.
func CreateCommandFlagSet(name, desc, usage string) *flag.FlagSet {
	// Define flagset
	fls := flag.NewFlagSet(name, flag.ExitOnError)
	fls.Usage = func() {
		fmt.Fprintf(os.Stderr, "\n%sDescription:%s\n\n\t %s\n\n", constants.BoldColor, constants.ResetColor, desc)
		fmt.Fprintf(os.Stderr, "%sUsage: %s%s%s\n\n", constants.BoldColor, constants.GreenColor, usage, constants.ResetColor)
		fls.PrintDefaults()
	}
	return fls
}

// ParseModeStr parses an octal tree entry mode such as "100644" or "40000".
func ParseModeStr(mode string) (uint32, error) {
	v, err := strconv.ParseUint(mode, 8, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// ParseSHA decodes a 40 character hex object id.
func ParseSHA(shaHex string) ([20]byte, error) {
	var sha [20]byte
	if len(shaHex) != 40 {
		return sha, fmt.Errorf("invalid SHA length: %d", len(shaHex))
	}
	raw, err := hex.DecodeString(shaHex)
	if err != nil {
		return sha, fmt.Errorf("invalid SHA %q: %w", shaHex, err)
	}
	copy(sha[:], raw)
	return sha, nil
}
