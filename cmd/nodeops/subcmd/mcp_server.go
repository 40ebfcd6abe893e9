/*
	(c) Copyright NetFoundry Inc. Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package subcmd

import (
	"github.com/chunga/ict-nodeops/kernel/mcp"
	"github.com/chunga/ict-nodeops/kernel/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewMCPServerCommand())
}

func NewMCPServerCommand() *cobra.Command {
	mcpCmd := &MCPServerCommand{}

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Start MCP server for AI-driven node management",
		Long: `Start an MCP (Model Context Protocol) server that exposes agent node
lifecycle management to AI assistants.

The server provides tools for:
  - list_nodes: List all configured nodes
  - launch_node: Provision a node's instance and start its agent
  - terminate_node: Stop a node's agent and terminate its instance

And resources:
  - nodeops://status: Last observed status of all nodes`,
		RunE: mcpCmd.run,
	}

	cmd.Flags().BoolVar(&mcpCmd.UseMemoryStore, "memory", false, "use in-memory store (for testing)")

	return cmd
}

type MCPServerCommand struct {
	UseMemoryStore bool
}

func (m *MCPServerCommand) run(cmd *cobra.Command, args []string) error {
	var nodeStore store.StatusStore

	if m.UseMemoryStore {
		logrus.Info("using in-memory store")
		nodeStore = store.NewMemoryStore()
	} else {
		var err error
		if nodeStore, err = openStore(); err != nil {
			return err
		}
	}

	manager, err := loadManager(nodeStore)
	if err != nil {
		return err
	}

	logrus.Info("starting MCP server on stdio...")
	server := mcp.NewNodeopsMCPServer(nodeStore, manager)
	return server.ServeStdio()
}
