package paths

import (
	"flag"
	"fmt"
)

// SetupFilePathFlag registers a string flag for a datafile path. The default
// is whatever Find locates for fileName, or an empty string when no
// candidate exists on disk.
func SetupFilePathFlag(fileName, flagName string, flagPtr *string) {
	flag.StringVar(flagPtr, flagName, Find(fileName), fmt.Sprintf("Path to %s", fileName))
}
