package subcmd

import (
	"fmt"
	"os"

	"github.com/chunga/ict-nodeops/kernel/ec2"
	"github.com/chunga/ict-nodeops/kernel/validation"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func init() {
	RootCmd.AddCommand(newValidateCommand())
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <node>",
		Short: "Check a node's credentials, image and catalog references",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	nodeStore, err := openStore()
	if err != nil {
		return err
	}
	cfg, err := nodeStore.GetConfig(args[0])
	if err != nil {
		return err
	}

	creds := cfg.Credentials
	if creds.SecretKey == "" {
		fmt.Print("secret key: ")
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return errors.Wrap(err, "unable to read secret key")
		}
		creds.SecretKey = string(secret)
	}

	client, err := ec2.NewClient(creds)
	if err != nil {
		return err
	}

	results := validation.CheckAll(client, cfg.Descriptor)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Check", "Result", "Message"})
	allOk := true
	for _, result := range results {
		outcome := "ok"
		if !result.Ok {
			outcome = "FAILED"
			allOk = false
		}
		t.AppendRow(table.Row{result.Name, outcome, result.Message})
	}
	t.Render()

	if !allOk {
		return errors.Errorf("validation failed for node [%s]", args[0])
	}
	return nil
}
