// Command sqllint checks that every inline SQL constant starts with a unique
// "--sql <uuid>" marker, the contract infra.SQLRunner enforces at runtime.
package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: sqllint [dir|file.go ...]")
		flag.PrintDefaults()
	}
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"internal/sqlinline"}
	}

	l := newLinter()
	for _, target := range targets {
		if err := l.lintPath(target); err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(2)
		}
	}

	violations := l.finish()
	if len(violations) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "sqllint: SQL marker violations")
	for _, v := range violations {
		fmt.Fprintf(os.Stderr, "  %s\n", v)
	}
	os.Exit(1)
}
