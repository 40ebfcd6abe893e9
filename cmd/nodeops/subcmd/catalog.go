package subcmd

import (
	"os"

	"github.com/chunga/ict-nodeops/kernel/ec2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "List provider catalog entries visible to a node's credentials",
	}
	catalogCmd.AddCommand(newCatalogZonesCommand())
	catalogCmd.AddCommand(newCatalogSecurityGroupsCommand())
	RootCmd.AddCommand(catalogCmd)
}

func newCatalogZonesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "zones <node>",
		Short: "List availability zones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderCatalog(args[0], "Availability Zone", ec2.Client.ListAvailabilityZones)
		},
	}
}

func newCatalogSecurityGroupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "security-groups <node>",
		Short: "List security groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderCatalog(args[0], "Security Group", ec2.Client.ListSecurityGroups)
		},
	}
}

func renderCatalog(nodeId, header string, list func(ec2.Client) ([]string, error)) error {
	nodeStore, err := openStore()
	if err != nil {
		return err
	}
	cfg, err := nodeStore.GetConfig(nodeId)
	if err != nil {
		return err
	}
	client, err := ec2.NewClient(cfg.Credentials)
	if err != nil {
		return err
	}

	names, err := list(client)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{header})
	for _, name := range names {
		t.AppendRow(table.Row{name})
	}
	t.Render()
	return nil
}
