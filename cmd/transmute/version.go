package main

import (
	"fmt"
	"runtime"
)

// Run prints the version.
func (c *VersionCmd) Run() error {
	fmt.Printf("transmute %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}
