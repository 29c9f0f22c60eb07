package main

import (
	"fmt"
	"os"

	"github.com/chaos-io/bgswap/util"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	err := newRootCmd().Execute()
	util.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
