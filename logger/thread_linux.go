//go:build linux
// +build linux

package logger

import (
	"strconv"

	"golang.org/x/sys/unix"
)

func getThreadId() string {
	return strconv.Itoa(unix.Gettid())
}
