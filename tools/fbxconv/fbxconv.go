package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mogaika/fbxloader/config"
	"github.com/mogaika/fbxloader/loader"
)

type app struct {
	configPath string
	cfg        *config.Config
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) loadScene(path string) (*loader.Scene, error) {
	opts, err := a.cfg.DecoderOptions()
	if err != nil {
		return nil, err
	}
	return loader.LoadFile(path, opts)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "fbxconv",
		Short:         "Inspect and convert binary FBX files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "yaml or toml config file")

	root.AddCommand(newInfoCmd(a))
	root.AddCommand(newTreeCmd(a))
	root.AddCommand(newDumpCmd(a))
	root.AddCommand(newGltfCmd(a))
	root.AddCommand(newFbxCmd(a))
	root.AddCommand(newServeCmd(a))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
