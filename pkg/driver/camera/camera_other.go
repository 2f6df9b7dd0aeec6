//go:build !linux

// Package camera registers V4L2 capture devices with the driver manager.
// Camera capture is only implemented for Linux; on other platforms the
// package is importable but registers nothing.
package camera

// Initialize is a no-op on platforms without V4L2.
func Initialize() {}
