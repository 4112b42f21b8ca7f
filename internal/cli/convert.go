package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/quillribbon/pkg/errors"
	"github.com/matzehuels/quillribbon/pkg/pipeline"
	"github.com/matzehuels/quillribbon/pkg/ribbon"
	"github.com/matzehuels/quillribbon/pkg/sink"
)

// convertFlags holds the command-line flags for the convert command.
type convertFlags struct {
	output      string
	formats     string
	grouping    string
	orientation string
	primitive   string
	halfWidth   bool
	workers     int
	noCache     bool
	refresh     bool
}

// convertCommand creates the convert command for building ribbon meshes.
func (c *CLI) convertCommand() *cobra.Command {
	var flags convertFlags

	cmd := &cobra.Command{
		Use:   "convert [archive.zip]",
		Short: "Build ribbon meshes from a Quill archive",
		Long: `Build ribbon meshes from a Quill archive.

Every drawing of every paint layer is decoded and turned into a triangle strip
of camera-facing quads, one buffer per drawing (or per stroke with
--batch stroke). Drawings that cannot be decoded are reported and skipped;
the remaining drawings are still converted.

Results are cached, keyed by the archive content and the build options.`,
		Example: `  quillribbon convert painting.zip
  quillribbon convert painting.zip -f json,obj -o out/painting
  quillribbon convert painting.zip --batch stroke --half-width`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.convertOptions(cmd, flags)
			if err != nil {
				return err
			}
			opts.Source = filepath.Base(args[0])
			return c.runConvert(cmd.Context(), args[0], flags, opts)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): json (default), obj (comma-separated)")
	cmd.Flags().StringVar(&flags.grouping, "batch", string(ribbon.PerDrawing), "buffer grouping: drawing, stroke")
	cmd.Flags().StringVar(&flags.orientation, "orientation", string(ribbon.Billboard), "cross-section orientation: billboard (oriented applies to line lists only; archives carry no per-vertex rotation)")
	cmd.Flags().StringVar(&flags.primitive, "primitive", string(ribbon.Triangles), "emitted primitive: triangles, lines")
	cmd.Flags().BoolVar(&flags.halfWidth, "half-width", false, "use half the brush width as the corner offset")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "drawings converted in parallel (default GOMAXPROCS)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "rebuild even if cached")

	return cmd
}

// convertOptions merges the config file with the flags the user set.
func (c *CLI) convertOptions(cmd *cobra.Command, flags convertFlags) (pipeline.Options, error) {
	opts := c.Config.pipelineOptions()
	fs := cmd.Flags()
	if fs.Changed("format") {
		opts.Formats = parseFormats(flags.formats)
	}
	if fs.Changed("batch") {
		opts.Build.Grouping = ribbon.Grouping(flags.grouping)
	}
	if fs.Changed("orientation") {
		opts.Build.Orientation = ribbon.Orientation(flags.orientation)
	}
	if fs.Changed("primitive") {
		opts.Build.Primitive = ribbon.Primitive(flags.primitive)
	}
	if fs.Changed("half-width") {
		opts.Build.HalfWidth = flags.halfWidth
	}
	if fs.Changed("workers") {
		opts.Workers = flags.workers
	}
	opts.Refresh = flags.refresh
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	if flags.output != "" {
		if err := errors.ValidatePath(flags.output); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// runConvert reads the archive, runs the pipeline and writes the artifacts.
func (c *CLI) runConvert(ctx context.Context, input string, flags convertFlags, opts pipeline.Options) error {
	prog := newProgress(c.Logger)

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Converting %s...", filepath.Base(input)))
	restore := trackProgress(spinner)
	defer restore()
	spinner.Start()

	result, err := runner.Execute(ctx, data, opts)
	if err != nil {
		spinner.StopWithError("Conversion failed")
		return fmt.Errorf("convert %s: %w", input, err)
	}
	spinner.Stop()

	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    flags.output,
	})
	if err != nil {
		return err
	}

	printSuccess("Converted %s", filepath.Base(input))
	printGeometryStats(result.Stats, len(result.Meshes), result.CacheInfo.GeometryHit)
	for _, p := range paths {
		printFile(p)
	}
	printItemErrors(result.Errors)
	if len(result.Errors) > 0 {
		printNewline()
		printNextStep("Inspect the skipped drawings", fmt.Sprintf("%s inspect %s", appName, input))
	}
	prog.done("Converted " + input)
	return nil
}

// artifactWriteParams describes where rendered artifacts go.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
}

// writeArtifacts writes one file per format and returns the written paths
// in format order. A single format is written to output verbatim; several
// formats share output as a base path.
func writeArtifacts(p artifactWriteParams) ([]string, error) {
	base := basePath(p.output, p.input)
	var paths []string
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			continue
		}
		path := base + sink.Extension(format)
		if len(p.formats) == 1 && p.output != "" {
			path = p.output
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return paths, fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.json, .obj), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
