package cli

import (
	"fmt"
	"io"
	"runtime/debug"
)

// Version is overridden at link time with -X.
var Version = ""

func version() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

func printVersion(stdout io.Writer) {
	fmt.Fprintf(stdout, "charcard %s\n", version())
}
