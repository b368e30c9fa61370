//go:build !windows

package progress

import "os"

// enableWindowsANSI is a no-op; Unix terminals handle escape sequences.
func enableWindowsANSI(f *os.File) {}
