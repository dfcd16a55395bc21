//go:build !statsview
// +build !statsview

package debug

import (
	"fmt"
	"io"
)

// StatsAddress is where the runtime stats server would listen
const StatsAddress = "localhost:12600"

// LaunchStats reports that the stats server was not compiled in
func LaunchStats(output io.Writer) {
	fmt.Fprintln(output, "stats server not available (build with -tags statsview)")
}

// StatsAvailable reports whether the binary was built with statsview
func StatsAvailable() bool {
	return false
}
