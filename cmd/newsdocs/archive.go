package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/pevans/newsdocs/archiver"
)

const noBreakArg = "nobreak"

var errMissingMode = errors.New("missing mode, expected move, combine or stars")

// parseModeArgs reads "<mode> [nobreak]" and reports whether page breaks
// stay on.
func parseModeArgs(args []string, noBreakFlag bool) (archiver.Mode, bool, error) {
	if len(args) == 0 {
		return "", false, errMissingMode
	}

	mode, err := archiver.ParseMode(args[0])
	if err != nil {
		return "", false, err
	}

	pageBreaks := !noBreakFlag
	if len(args) == 2 && args[1] == noBreakArg {
		pageBreaks = false
	}
	return mode, pageBreaks, nil
}

func runArchive(cmd *cobra.Command, args []string) error {
	noBreak, _ := cmd.Flags().GetBool("no-break")

	mode, pageBreaks, err := parseModeArgs(args, noBreak)
	if err != nil {
		return err
	}

	a, err := load(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	// Per-file failures are logged by the runner; only usage and
	// configuration problems change the exit status.
	if err := a.Archiver().Run(cmd.Context(), mode, pageBreaks); err != nil {
		a.Logger.Error("mode finished with failures", "mode", mode, "error", err)
	}
	return nil
}
