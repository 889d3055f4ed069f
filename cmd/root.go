package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "vigia"}

	root.AddCommand(serveCMD(), migrateCMD(), searchCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
