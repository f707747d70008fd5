package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-petr/ledger/internal/domain"
	"github.com/go-petr/ledger/internal/middleware"
	"github.com/go-petr/ledger/pkg/errorspkg"
)

var (
	category   string
	accountID  string
	password   string
	amount     string
	toID       string
	toPassword string

	// stdin is shared by consecutive password prompts of one command.
	stdin *bufio.Reader
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account and print its number and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := domain.ParseCategory(category)
		if err != nil {
			return err
		}

		a, err := setup()
		if err != nil {
			return err
		}

		ctx := middleware.WithOperation(cmd.Context(), a.logger, "create")

		acc, err := a.service.Create(ctx, c)
		if err != nil {
			return userError(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Account created. Number: %s, Password: %s\n", acc.ID, acc.Password)

		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the account balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}

		pw, err := readPassword(cmd, password, "Enter password: ")
		if err != nil {
			return err
		}

		ctx := middleware.WithOperation(cmd.Context(), a.logger, "balance")

		acc, err := a.service.Login(ctx, accountID, pw)
		if err != nil {
			return userError(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Your balance is: %s\n", acc.Balance)

		return nil
	},
}

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Add money to the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeBalance(cmd, "deposit")
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Take money from the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeBalance(cmd, "withdraw")
	},
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send money to another account",
	RunE: func(cmd *cobra.Command, args []string) error {
		amt, err := domain.ParseAmount(amount)
		if err != nil {
			return err
		}

		a, err := setup()
		if err != nil {
			return err
		}

		pw, err := readPassword(cmd, password, "Enter password: ")
		if err != nil {
			return err
		}

		toPw, err := readPassword(cmd, toPassword, "Enter receiver's password: ")
		if err != nil {
			return err
		}

		ctx := middleware.WithOperation(cmd.Context(), a.logger, "send")

		result, err := a.service.Send(ctx, domain.SendParams{
			FromAccountID: accountID,
			FromPassword:  pw,
			ToAccountID:   toID,
			ToPassword:    toPw,
			Amount:        amt,
		})
		if err != nil {
			return userError(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Sent %s to %s. Your new balance: %s\n", amt, result.ToAccount.ID, result.FromAccount.Balance)

		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}

		pw, err := readPassword(cmd, password, "Enter password: ")
		if err != nil {
			return err
		}

		ctx := middleware.WithOperation(cmd.Context(), a.logger, "delete")

		if err := a.service.Delete(ctx, accountID, pw); err != nil {
			return userError(err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Account deleted.")

		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&category, "category", string(domain.Personal), "account category (Personal/Business)")

	for _, c := range []*cobra.Command{balanceCmd, depositCmd, withdrawCmd, sendCmd, deleteCmd} {
		c.Flags().StringVar(&accountID, "account", "", "account number")
		c.Flags().StringVar(&password, "password", "", "account password, prompted for when empty")
		_ = c.MarkFlagRequired("account")
	}

	for _, c := range []*cobra.Command{depositCmd, withdrawCmd, sendCmd} {
		c.Flags().StringVar(&amount, "amount", "", "amount of money")
		_ = c.MarkFlagRequired("amount")
	}

	sendCmd.Flags().StringVar(&toID, "to", "", "receiver account number")
	sendCmd.Flags().StringVar(&toPassword, "to-password", "", "receiver password, prompted for when empty")
	_ = sendCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(createCmd, balanceCmd, depositCmd, withdrawCmd, sendCmd, deleteCmd)
}

func changeBalance(cmd *cobra.Command, op string) error {
	amt, err := domain.ParseAmount(amount)
	if err != nil {
		return err
	}

	a, err := setup()
	if err != nil {
		return err
	}

	pw, err := readPassword(cmd, password, "Enter password: ")
	if err != nil {
		return err
	}

	ctx := middleware.WithOperation(cmd.Context(), a.logger, op)

	var (
		acc  domain.Account
		verb string
	)

	if op == "deposit" {
		acc, err = a.service.Deposit(ctx, accountID, pw, amt)
		verb = "Deposited"
	} else {
		acc, err = a.service.Withdraw(ctx, accountID, pw, amt)
		verb = "Withdrew"
	}

	if err != nil {
		return userError(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s. Your new balance: %s\n", verb, amt, acc.Balance)

	return nil
}

// readPassword returns flagValue, or asks for the password when the flag is empty.
func readPassword(cmd *cobra.Command, flagValue, prompt string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, prompt)

	if stdinIsTerminal() {
		return terminalSecretReader(out)()
	}

	if stdin == nil {
		stdin = bufio.NewReader(cmd.InOrStdin())
	}

	line, err := stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

// userError hides storage details behind the internal error. They are already logged.
func userError(err error) error {
	if errors.Is(err, domain.ErrStorage) || errors.Is(err, domain.ErrCorruptRecord) {
		return errorspkg.ErrInternal
	}

	return err
}
