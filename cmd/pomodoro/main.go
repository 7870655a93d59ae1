package main

import (
	"context"
	"fmt"
	"os"

	"pomodoro/focus/internal/commands"
)

var version = "dev"

func main() {
	flags := &commands.Flags{}
	root, cleanup := commands.NewRoot(flags, version)

	err := root.Run(context.Background(), os.Args)
	cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
