//go:build statsview
// +build statsview

package debug

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// StatsAddress is where the runtime stats server listens
const StatsAddress = "localhost:12600"

const statsURL = "/debug/statsview"

// LaunchStats starts the runtime stats server on its own goroutine
func LaunchStats(output io.Writer) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(StatsAddress))
		mgr := statsview.New()
		mgr.Start()
	}()

	fmt.Fprintf(output, "stats server available at %s%s\n", StatsAddress, statsURL)
}

// StatsAvailable reports whether the binary was built with statsview
func StatsAvailable() bool {
	return true
}
