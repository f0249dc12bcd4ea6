//go:build !darwin && !linux

package logger

import "os"

// Terminals are never detected here so output is always plain text
const SupportsColorEscapes = false

func GetTerminalInfo(*os.File) TerminalInfo {
	return TerminalInfo{}
}
