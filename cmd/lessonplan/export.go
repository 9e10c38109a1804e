package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yko79135/lessonplangenerator/internal/render"
)

var (
	exportOpts   draftFlags
	exportFormat string
	exportOut    string
	exportFont   string
)

var exportCmd = &cobra.Command{
	Use:   "export <pdf>",
	Short: "Write the weekly report as txt, pdf, docx or html",
	Long: `Builds the draft for one week and renders it as a report document.
The output file defaults to week_<N>_report.<format> in the current directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportOpts.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", string(render.FormatDOCX), "output format: txt, pdf, docx or html")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path")
	exportCmd.Flags().StringVar(&exportFont, "font", "", "TTF font for pdf output (default $LESSON_RENDER_FONT_PATH)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	d, err := exportOpts.build(cmd, args[0])
	if err != nil {
		return err
	}
	fields := d.Fields
	fields.EditedDraft = d.DraftText

	r := render.New(render.Options{FontPath: firstSet(exportFont, os.Getenv("LESSON_RENDER_FONT_PATH"))})
	out, err := r.Render(format, fields)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", format, err)
	}

	path := firstSet(exportOut, render.Filename(exportOpts.week, format))
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	cmd.Printf("wrote %s (%d bytes)\n", path, len(out))
	return nil
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
