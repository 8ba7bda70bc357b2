//go:build !linux && !windows
// +build !linux,!windows

package logger

func getThreadId() string {
	return ""
}
