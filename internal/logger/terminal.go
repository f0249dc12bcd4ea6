//go:build darwin || linux

package logger

import (
	"os"

	"golang.org/x/sys/unix"
)

const SupportsColorEscapes = true

func GetTerminalInfo(file *os.File) TerminalInfo {
	fd := int(file.Fd())

	// Anything that doesn't answer a termios request isn't a terminal
	if _, err := unix.IoctlGetTermios(fd, ioctlReadTermios); err != nil {
		return TerminalInfo{}
	}

	// See https://no-color.org/
	_, noColor := os.LookupEnv("NO_COLOR")

	info := TerminalInfo{IsTTY: true, UseColorEscapes: !noColor}
	if size, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ); err == nil {
		info.Width = int(size.Col)
	}
	return info
}
