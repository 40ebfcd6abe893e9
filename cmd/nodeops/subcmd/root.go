package subcmd

import (
	"os"
	"path/filepath"

	"github.com/chunga/ict-nodeops/kernel/loader"
	"github.com/chunga/ict-nodeops/kernel/node"
	"github.com/chunga/ict-nodeops/kernel/store"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	definitionsPath string
	stateDir        string
	verbose         bool
)

var RootCmd = &cobra.Command{
	Use:   "nodeops",
	Short: "Provision and manage EC2-backed agent nodes",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&definitionsPath, "definitions", "d", "", "path to a YAML node definitions file to load before running")
	RootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "directory holding node records (default ~/.nodeops)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func Execute() error {
	return RootCmd.Execute()
}

func openStore() (store.StatusStore, error) {
	dir := stateDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "unable to resolve home directory")
		}
		dir = filepath.Join(home, ".nodeops")
	}
	fileStore := store.NewFileStore(dir)

	if definitionsPath != "" {
		configs, err := loader.LoadNodes(definitionsPath)
		if err != nil {
			return nil, err
		}
		for _, cfg := range configs {
			if err := fileStore.SaveConfig(cfg); err != nil {
				return nil, err
			}
		}
		logrus.Infof("loaded %d node definition(s) from [%s]", len(configs), definitionsPath)
	}

	return fileStore, nil
}

func loadManager(s store.NodeStore) (*node.Manager, error) {
	ids, err := s.ListNodes()
	if err != nil {
		return nil, err
	}

	manager := node.NewManager()
	for _, id := range ids {
		cfg, err := s.GetConfig(id)
		if err != nil {
			return nil, err
		}
		if err := manager.Add(node.New(*cfg)); err != nil {
			return nil, err
		}
	}
	return manager, nil
}

func loadNode(s store.NodeStore, nodeId string) (*node.Node, error) {
	cfg, err := s.GetConfig(nodeId)
	if err != nil {
		return nil, err
	}
	return node.New(*cfg), nil
}
