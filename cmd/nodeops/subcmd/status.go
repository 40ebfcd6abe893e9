package subcmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chunga/ict-nodeops/kernel/ec2"
	"github.com/chunga/ict-nodeops/kernel/store"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/oliveagle/jsonpath"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(newStatusCommand())
}

type statusCommand struct {
	Live  bool
	Query string
}

func newStatusCommand() *cobra.Command {
	statusCmd := &statusCommand{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of all configured nodes",
		RunE:  statusCmd.run,
	}

	cmd.Flags().BoolVar(&statusCmd.Live, "live", false, "query the provider for live instance state")
	cmd.Flags().StringVarP(&statusCmd.Query, "query", "q", "", "jsonpath query over the status document, e.g. '$.nodes[0].state'")

	return cmd
}

func (s *statusCommand) run(cmd *cobra.Command, args []string) error {
	nodeStore, err := openStore()
	if err != nil {
		return err
	}

	ids, err := nodeStore.ListNodes()
	if err != nil {
		return err
	}

	statuses := make([]store.NodeStatus, 0, len(ids))
	for _, id := range ids {
		status, err := nodeStore.GetStatus(id)
		if err != nil {
			statuses = append(statuses, store.NodeStatus{NodeId: id, State: string(ec2.StateAbsent)})
			continue
		}
		if s.Live && status.InstanceId != "" {
			status.State = s.liveState(nodeStore, id, status.InstanceId)
		}
		statuses = append(statuses, *status)
	}

	if s.Query != "" {
		return renderQuery(statuses, s.Query)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Node", "Instance", "State", "Address", "Updated"})
	for _, status := range statuses {
		updated := ""
		if !status.UpdatedAt.IsZero() {
			updated = status.UpdatedAt.Format("2006-01-02 15:04:05")
		}
		t.AppendRow(table.Row{status.NodeId, status.InstanceId, status.State, status.Address, updated})
	}
	t.Render()
	return nil
}

func (s *statusCommand) liveState(nodeStore store.NodeStore, nodeId, instanceId string) string {
	cfg, err := nodeStore.GetConfig(nodeId)
	if err != nil {
		return string(ec2.StateUnknown)
	}
	client, err := ec2.NewClient(cfg.Credentials)
	if err != nil {
		return string(ec2.StateUnknown)
	}
	state, err := client.DescribeState(instanceId)
	if err != nil {
		logrus.Debugf("unable to query state of instance [%s]: %v", instanceId, err)
		return string(ec2.StateUnknown)
	}
	return string(state)
}

func renderQuery(statuses []store.NodeStatus, query string) error {
	data, err := json.Marshal(map[string]interface{}{"nodes": statuses})
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	result, err := jsonpath.JsonPathLookup(doc, query)
	if err != nil {
		return err
	}
	rendered, err := json.Marshal(result)
	if err != nil {
		return err
	}
	fmt.Println(string(rendered))
	return nil
}
