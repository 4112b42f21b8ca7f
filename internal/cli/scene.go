package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/quillribbon/pkg/archive"
	"github.com/matzehuels/quillribbon/pkg/errors"
	"github.com/matzehuels/quillribbon/pkg/scene"
)

const (
	sceneFormatDOT = "dot"
	sceneFormatSVG = "svg"
)

// sceneCommand creates the scene command for diagramming the node tree.
func (c *CLI) sceneCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "scene [archive.zip]",
		Short: "Render the scene tree of an archive as DOT or SVG",
		Long: `Render the scene tree of an archive as DOT or SVG.

Nodes that own drawings are filled; structural nodes are dashed. With
--detailed each label lists the node type and the data file offset of every
drawing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateOneOf("format", format, sceneFormatDOT, sceneFormatSVG); err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read archive: %w", err)
			}
			a, err := archive.Open(data)
			if err != nil {
				return err
			}
			doc, err := scene.Parse(a.Metadata())
			if err != nil {
				return err
			}

			out := []byte(scene.ToDOT(doc, scene.DOTOptions{Detailed: detailed}))
			if format == sceneFormatSVG {
				if out, err = scene.RenderSVG(cmd.Context(), string(out)); err != nil {
					return fmt.Errorf("render svg: %w", err)
				}
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(out)
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "_scene." + format
			}
			if err := errors.ValidatePath(output); err != nil {
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Scene diagram")
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, or - for stdout")
	cmd.Flags().StringVarP(&format, "format", "f", sceneFormatSVG, "output format: svg, dot")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show node types and drawing offsets")

	return cmd
}
