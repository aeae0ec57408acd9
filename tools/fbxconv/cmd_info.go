package main

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mogaika/fbxloader/scene"
)

func newInfoCmd(a *app) *cobra.Command {
	var asJson bool
	cmd := &cobra.Command{
		Use:   "info <file.fbx>",
		Short: "Print version, object counts and capability flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadScene(args[0])
			if err != nil {
				return err
			}
			st := s.Stats()
			out := cmd.OutOrStdout()
			if asJson {
				data, err := json.MarshalIndent(st, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}
			fmt.Fprintf(out, "version:     %d\n", st.Version)
			fmt.Fprintf(out, "sections:    %s\n", strings.Join(st.TopLevel, ", "))
			fmt.Fprintf(out, "models:      %d\n", st.Models)
			fmt.Fprintf(out, "meshes:      %d (%d vertices, %d faces)\n", st.Meshes, st.Vertices, st.Faces)
			fmt.Fprintf(out, "connections: %d\n", st.Connections)
			fmt.Fprintf(out, "images:      %v\n", st.Flags.HasImages)
			fmt.Fprintf(out, "textures:    %v\n", st.Flags.HasTextures)
			fmt.Fprintf(out, "materials:   %v\n", st.Flags.HasMaterials)
			fmt.Fprintf(out, "deformers:   %v\n", st.Flags.HasDeformers)
			fmt.Fprintf(out, "animations:  %v\n", st.Flags.HasAnimations)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJson, "json", false, "print as json")
	return cmd
}

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <file.fbx>",
		Short: "Print the scene hierarchy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadScene(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			s.Root.Traverse(func(n *scene.Node) {
				t := n.World.Col(3)
				fmt.Fprintf(out, "%s%s %d %q at (%g, %g, %g)",
					strings.Repeat("  ", n.Depth()), n.Kind(), n.ID, n.Name, t[0], t[1], t[2])
				if n.Mesh != nil {
					fmt.Fprintf(out, " %d vertices %d faces", len(n.Mesh.Vertices), len(n.Mesh.Faces))
				}
				fmt.Fprintln(out)
			})
			return nil
		},
	}
}
