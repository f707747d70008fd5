package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/go-petr/ledger/internal/accountdelivery"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Run the interactive menu",
	RunE:  runMenu,
}

func init() {
	rootCmd.AddCommand(menuCmd)
}

func runMenu(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	var opts []accountdelivery.MenuOption
	if stdinIsTerminal() {
		opts = append(opts, accountdelivery.WithSecretReader(terminalSecretReader(out)))
	}

	menu := accountdelivery.NewMenu(a.service, os.Stdin, out, a.logger, opts...)

	return menu.Run(cmd.Context())
}
