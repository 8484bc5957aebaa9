package main

import (
	"fmt"
	"os"

	"github.com/gocrud/scopedproxy"
)

func main() {
	if err := scopedproxy.Run(scopedproxy.DefaultOptions(scopedproxy.DefaultConfigFile)...); err != nil {
		fmt.Fprintf(os.Stderr, "scopedproxy: %v\n", err)
		os.Exit(1)
	}
}
