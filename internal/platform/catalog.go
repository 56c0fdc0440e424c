// Package platform holds the per-OS tool catalogs the capability probe resolves.
package platform

import (
	"time"

	"hostrelay/internal/capability"
)

const (
	powerTimeout   = 15 * time.Second
	lockTimeout    = 5 * time.Second
	captureTimeout = 10 * time.Second
	speechTimeout  = 60 * time.Second
)

// CatalogFor returns the candidate methods for goos. Unknown platforms get an
// empty catalog, which makes every capability unavailable.
func CatalogFor(goos string) capability.Catalog {
	var methods map[capability.Name][]capability.Method
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		methods = linuxMethods()
	case "windows":
		methods = windowsMethods()
	case "darwin":
		methods = darwinMethods()
	default:
		methods = map[capability.Name][]capability.Method{}
	}
	return capability.Catalog{GOOS: goos, Methods: methods}
}

func step(command string, args ...string) capability.Step {
	return capability.Step{Command: command, Args: args}
}

func single(name string, timeout time.Duration, command string, args ...string) capability.Method {
	return capability.Method{
		Name:    name,
		Steps:   []capability.Step{step(command, args...)},
		Timeout: timeout,
	}
}
