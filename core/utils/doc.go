// Package utils provides small scalar conversion helpers shared by the sync
// comparator and the CLI output code.
package utils
