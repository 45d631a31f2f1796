//go:build !windows

package record

// EOL terminates lines written by the sorter.
const EOL = "\n"
