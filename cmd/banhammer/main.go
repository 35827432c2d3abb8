package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "banhammer",
	Short: "A UDP flood and port-scan firewall for small real-time game servers",
}

func main() {
	rootCmd.AddCommand(runCmd, checkCIDRCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
