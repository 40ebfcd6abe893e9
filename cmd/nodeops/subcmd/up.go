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
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chunga/ict-nodeops/kernel/connector"
	"github.com/chunga/ict-nodeops/kernel/ec2"
	"github.com/chunga/ict-nodeops/kernel/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(newUpCommand())
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up <node>",
		Short: "Provision the cloud instance for a node and start its agent",
		Args:  cobra.ExactArgs(1),
		RunE:  runUp,
	}
}

func runUp(cmd *cobra.Command, args []string) error {
	nodeStore, err := openStore()
	if err != nil {
		return err
	}

	n, err := loadNode(nodeStore, args[0])
	if err != nil {
		return err
	}

	controller, err := n.Launcher()
	if err != nil {
		return err
	}

	// ctrl-c cancels the poll wait and unwinds the launch as an interruption
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := connector.NewWriterProgress(os.Stdout)
	if err := controller.Launch(ctx, n.Target(), progress); err != nil {
		return err
	}

	if err := nodeStore.SaveStatus(store.NodeStatus{
		NodeId:     n.Id(),
		InstanceId: controller.InstanceId(),
		State:      string(ec2.StateRunning),
		Address:    controller.Address(),
		UpdatedAt:  time.Now(),
	}); err != nil {
		logrus.Warnf("unable to record status for node [%s]: %v", n.Id(), err)
	}

	logrus.Infof("node [%s] is up on instance [%s]", n.Id(), controller.InstanceId())
	return nil
}
