// Command lessonplan parses syllabus PDFs and exports weekly lesson plans
// from the command line, without running the server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yko79135/lessonplangenerator/internal/curriculum"
	"github.com/yko79135/lessonplangenerator/internal/extract"
	"github.com/yko79135/lessonplangenerator/internal/syllabus"
)

var verbose bool

// newExtractor is replaced in tests.
var newExtractor = func() extract.Extractor { return extract.NewPDFExtractor() }

var rootCmd = &cobra.Command{
	Use:   "lessonplan",
	Short: "Turn syllabus PDFs into weekly lesson plans",
	Long: `lessonplan reads a syllabus PDF, splits it into weeks and drafts
the weekly lesson plan and report for a chosen week.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
}

func main() {
	_ = godotenv.Load(".env")
	rootCmd.SetOut(os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// parseFile extracts and parses a syllabus PDF.
func parseFile(ctx context.Context, path string) (syllabus.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return syllabus.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	text, err := newExtractor().Extract(ctx, content)
	if err != nil {
		return syllabus.Document{}, fmt.Errorf("extracting %s: %w", filepath.Base(path), err)
	}
	return syllabus.Parse(text), nil
}

func loadCurriculum(dir string) ([]curriculum.Row, error) {
	if dir == "" {
		return nil, nil
	}
	l, err := curriculum.NewLoader(dir)
	if err != nil {
		return nil, err
	}
	return l.Rows(), nil
}
