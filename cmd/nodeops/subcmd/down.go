package subcmd

import (
	"os"

	"github.com/chunga/ict-nodeops/kernel/connector"
	"github.com/chunga/ict-nodeops/kernel/ec2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(newDownCommand())
}

func newDownCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "down <node>",
		Short: "Terminate the cloud instance recorded for a node",
		Args:  cobra.ExactArgs(1),
		RunE:  runDown,
	}
}

func runDown(cmd *cobra.Command, args []string) error {
	nodeStore, err := openStore()
	if err != nil {
		return err
	}

	n, err := loadNode(nodeStore, args[0])
	if err != nil {
		return err
	}

	status, err := nodeStore.GetStatus(n.Id())
	if err != nil {
		return err
	}
	if status.InstanceId == "" {
		logrus.Infof("node [%s] has no instance to terminate", n.Id())
		return nil
	}

	client, err := ec2.NewClient(n.Config().Credentials)
	if err != nil {
		return err
	}

	progress := connector.NewWriterProgress(os.Stdout)
	progress.Printf("terminating instance [%s]...", status.InstanceId)
	if err := client.Terminate(status.InstanceId); err != nil {
		return err
	}

	return nodeStore.DeleteStatus(n.Id())
}
