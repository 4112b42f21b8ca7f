package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/quillribbon/pkg/errors"
	"github.com/matzehuels/quillribbon/pkg/pipeline"
)

// inspectCommand creates the inspect command for summarizing an archive.
func (c *CLI) inspectCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect [archive.zip]",
		Short: "Summarize the scene tree and stroke tables of an archive",
		Long: `Summarize the scene tree and stroke tables of an archive.

Every drawing is decoded, but no geometry is built. Drawings that cannot be
decoded are listed with the reason.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeSummaryJSON(cmd.OutOrStdout(), s)
			}
			printSummary(filepath.Base(args[0]), s)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	return cmd
}

// inspect reads and summarizes the archive at path.
func (c *CLI) inspect(ctx context.Context, path string) (*pipeline.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	s, err := runner.Inspect(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", path, err)
	}
	return s, nil
}

func writeSummaryJSON(w io.Writer, s *pipeline.Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode summary")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printSummary prints the summary as key-values followed by a drawing table.
func printSummary(name string, s *pipeline.Summary) {
	fmt.Println(StyleTitle.Render(name))
	printKeyValue("Members", fmt.Sprint(s.Members))
	printKeyValue("Binary", fmt.Sprintf("%d bytes", s.BinarySize))
	printKeyValue("Nodes", StyleNumber.Render(strconv.Itoa(s.Stats.Nodes)))
	printKeyValue("Drawings", StyleNumber.Render(strconv.Itoa(s.Stats.Drawings)))
	printKeyValue("Strokes", StyleNumber.Render(strconv.Itoa(s.Stats.Strokes)))
	if s.Stats.Skipped > 0 {
		printKeyValue("Skipped", StyleWarning.Render(strconv.Itoa(s.Stats.Skipped)))
	}
	if len(s.Drawings) == 0 {
		return
	}
	printNewline()
	fmt.Println(drawingTable(s.Drawings))
}

// drawingTable renders one row per drawing.
func drawingTable(drawings []pipeline.DrawingInfo) string {
	rows := make([][]string, len(drawings))
	for i, d := range drawings {
		status := iconSuccess
		if d.Err != nil || d.Error != "" {
			status = d.Error
		}
		rows[i] = []string{d.Node, strconv.Itoa(d.Index), d.Offset, strconv.Itoa(d.Strokes), strconv.Itoa(d.Vertices), status}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Node", "#", "Offset", "Strokes", "Vertices", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row < len(drawings) && drawings[row].Error != "" {
				return base.Foreground(colorRed)
			}
			if col == 5 {
				return base.Foreground(colorGreen)
			}
			return base
		}).
		String()
}
