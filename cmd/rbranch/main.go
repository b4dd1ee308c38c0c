package main

import (
	"fmt"
	"os"

	_ "github.com/hepio/rbranch/cmd/rbranch/decode"
	_ "github.com/hepio/rbranch/cmd/rbranch/inspect"
	"github.com/hepio/rbranch/cmd/rbranch/root"
)

func main() {
	if _, err := root.Rbranch.ExecRoot(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
