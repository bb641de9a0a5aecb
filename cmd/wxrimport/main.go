// Command wxrimport is the CLI front end for the WXR import pipeline: it
// mirrors the admin three-step flow (upload, author/attachment options,
// import) as three subcommands, plus a resume subcommand that continues a
// checkpointed import, all driving the same in-process pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Exit codes per the import-level error taxonomy: success, syntax error,
// unsupported feature, I/O failure.
const (
	exitOK          = 0
	exitSyntaxError = 1
	exitUnsupported = 2
	exitIOFailure   = 3
)

func main() {
	cfgPath := ""

	rootCmd := &cobra.Command{
		Use:           "wxrimport",
		Short:         "Import WordPress eXtended RSS exports",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML config file")

	rootCmd.AddCommand(newUploadCmd(&cfgPath))
	rootCmd.AddCommand(newOptionsCmd(&cfgPath))
	rootCmd.AddCommand(newImportCmd(&cfgPath))
	rootCmd.AddCommand(newResumeCmd(&cfgPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a returned error to the CLI's documented exit codes.
func exitCodeFor(err error) int {
	switch {
	case isSyntaxErr(err):
		return exitSyntaxError
	case isUnsupportedErr(err):
		return exitUnsupported
	case err != nil:
		return exitIOFailure
	default:
		return exitOK
	}
}
