package main

import (
	"fmt"
	"os"

	"rackinv/internal/cli"
)

func main() {
	if err := cli.Execute(os.Stdin, os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
