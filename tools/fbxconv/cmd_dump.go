package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/fbxloader/utils"
)

func newDumpCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump <file.fbx>",
		Short: "Print the decoded node tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadScene(args[0])
			if err != nil {
				return err
			}
			view := s.Document.View()
			out := cmd.OutOrStdout()
			switch format {
			case "spew":
				fmt.Fprint(out, utils.SDump(view))
			case "json":
				data, err := json.MarshalIndent(view, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			case "ascii":
				return s.Document.Export(out)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(view); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("dump: unknown format %q", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "spew", "spew, json, yaml or ascii")
	return cmd
}
