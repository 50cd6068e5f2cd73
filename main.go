package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"phpmdlens/internal/cmd"
)

const VERSION = "1.0.0"
const PROJECT_NAME = "phpmdlens"

const LENS_ART = `
    🔍 phpmdlens 🔍
      .-""""-.
     /  .--.  \
    |  ( php ) |
     \  '--'  /
      '-....-'\
               \
   PHP Mess Detector, inside DDEV
`

func main() {
	cmd.Version = VERSION

	root := cmd.NewRootCommand()
	root.AddCommand(newVersionCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	var logo bool

	c := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			if logo {
				showLensArt()
				return
			}
			showVersion()
		},
	}
	c.Flags().BoolVar(&logo, "logo", false, "Show the phpmdlens ASCII art")

	return c
}

func showLensArt() {
	fmt.Print(color.CyanString(LENS_ART))
	fmt.Println(color.New(color.Bold).Sprint("\n" + PROJECT_NAME + " v" + VERSION))
}

func showVersion() {
	fmt.Printf("%s v%s\n", PROJECT_NAME, VERSION)
	fmt.Println("Runs phpmd in the DDEV web container and reports its findings as diagnostics")
}
