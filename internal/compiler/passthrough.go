package compiler

import (
	"fmt"
	"io"
	"os"

	"github.com/eliteGoblin/closurebatch/internal/guard"
)

// Passthrough returns a built-in routine that copies source to target
// unchanged. Like any single-shot compiler entry point it ends by exiting
// through exit: 0 when the file was written, 1 otherwise.
func Passthrough(exit guard.ExitPolicy) guard.Routine {
	return func(stderr io.Writer, level, source, target string) {
		if err := copyFile(source, target); err != nil {
			fmt.Fprintf(stderr, "ERROR - %s: %v\n", source, err)
			exit.Exit(1)
			return
		}
		exit.Exit(0)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
