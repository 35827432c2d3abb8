package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safing/banhammer/internal/cidrset"
)

var checkCIDRCmd = &cobra.Command{
	Use:   "check-cidr <file> <address>...",
	Short: "Load a CIDR file and test whether addresses match it",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		set := cidrset.New()
		if err := set.LoadFile(args[0]); err != nil {
			return fmt.Errorf("loading %s: %w", args[0], err)
		}

		for _, addrStr := range args[1:] {
			addr, err := parseDottedAddr(addrStr)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", addrStr, err)
			}
			fmt.Printf("%s: %v\n", addrStr, set.Contains(addr))
		}
		return nil
	},
}
