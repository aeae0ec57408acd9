package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mogaika/fbxloader/utils/fbxbuilder"
	"github.com/mogaika/fbxloader/utils/gltfutils"
	"github.com/mogaika/fbxloader/web"
)

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newGltfCmd(a *app) *cobra.Command {
	var bake, normalize, binary bool
	cmd := &cobra.Command{
		Use:   "gltf <in.fbx> <out>",
		Short: "Convert to glTF or GLB",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("bake") {
				bake = a.cfg.Export.Bake
			}
			if !cmd.Flags().Changed("normalize") {
				normalize = a.cfg.Export.Normalize
			}
			if !cmd.Flags().Changed("binary") {
				binary = a.cfg.Export.Binary
			}

			s, err := a.loadScene(args[0])
			if err != nil {
				return err
			}
			doc, err := gltfutils.ExportScene(s, gltfutils.Options{Bake: bake, Normalize: normalize})
			if err != nil {
				return err
			}
			if err := writeFile(args[1], func(f *os.File) error {
				return gltfutils.Write(f, doc, binary)
			}); err != nil {
				return fmt.Errorf("gltf: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d nodes, %d meshes\n", args[1], len(doc.Nodes), len(doc.Meshes))
			return nil
		},
	}
	cmd.Flags().BoolVar(&bake, "bake", false, "bake world transforms into one mesh")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "fit the scene into the [-1,1] cube")
	cmd.Flags().BoolVar(&binary, "binary", true, "write .glb instead of .gltf")
	return cmd
}

func newFbxCmd(a *app) *cobra.Command {
	var zipped bool
	cmd := &cobra.Command{
		Use:   "fbx <in.fbx> <out>",
		Short: "Re-export the triangulated scene as binary FBX 7.4",
		Long: "Re-export the triangulated scene as binary FBX 7.4.\n" +
			"With --zip the output is a zip holding the fbx and an ascii dump of the input.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadScene(args[0])
			if err != nil {
				return err
			}
			out := filepath.Base(args[1])
			base := strings.TrimSuffix(out, filepath.Ext(out))
			b := fbxbuilder.New(base + ".fbx")
			count := b.AddScene(s)
			if err := writeFile(args[1], func(f *os.File) error {
				if !zipped {
					return b.Write(f)
				}
				if err := b.AttachSourceDump(s, base+".txt"); err != nil {
					return err
				}
				return b.WriteZip(f, base+".fbx")
			}); err != nil {
				return fmt.Errorf("fbx: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d meshes\n", args[1], count)
			return nil
		},
	}
	cmd.Flags().BoolVar(&zipped, "zip", false, "write a zip with the fbx and an ascii dump of the input")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve [file.fbx]",
		Short: "Serve the scene over http",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			srv := web.NewServer(a.cfg)
			if len(args) == 1 {
				if err := srv.LoadFile(args[0]); err != nil {
					return err
				}
			}
			return srv.StartServer()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}
