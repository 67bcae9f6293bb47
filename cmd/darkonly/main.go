package main

import (
	"errors"
	"os"
	"strings"

	"github.com/flarebyte/darkonly/cmd/darkonly/root"
)

type exitCoder interface {
	ExitCode() int
}

func main() {
	if err := root.Execute(os.Args[1:]); err != nil {
		os.Exit(report(err))
	}
}

// report prints err as one line on stderr and returns the exit status.
func report(err error) int {
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if msg == "" {
		msg = "error"
	}
	_, _ = os.Stderr.WriteString(msg + "\n")
	var ec exitCoder
	if errors.As(err, &ec) {
		if c := ec.ExitCode(); c != 0 {
			return c
		}
	}
	return 1
}
