// Command medialib runs compression jobs and manages the compression
// history without the HTTP server.
//
// It reads the same environment as the server (LIBRARY_DIR, DATA_DIR,
// SCRATCH_DIR, FFMPEG_PATH, FFPROBE_PATH) and shares its settings database
// and history ledger, so a library selected in the web UI is used by
// default. Do not run it while the server is compressing the same library.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
