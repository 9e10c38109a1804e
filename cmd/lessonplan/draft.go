package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yko79135/lessonplangenerator/internal/planner"
)

// draftFlags are shared by draft and export.
type draftFlags struct {
	week          int
	className     string
	note          string
	teacher       string
	curriculumDir string
	noPrayer      bool
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.week, "week", "w", 1, "week number")
	cmd.Flags().StringVarP(&f.className, "class", "c", "", "class name (defaults to the first class of the week)")
	cmd.Flags().StringVar(&f.note, "note", "", "note added to the closing row")
	cmd.Flags().StringVar(&f.teacher, "teacher", "", "teacher name (default $LESSON_TEACHER_NAME)")
	cmd.Flags().StringVar(&f.curriculumDir, "curriculum", "", "directory of curriculum sheets (default $LESSON_CURRICULUM_PATH)")
	cmd.Flags().BoolVar(&f.noPrayer, "no-prayer", false, "leave the prayer out of the opening row")
}

func (f *draftFlags) build(cmd *cobra.Command, path string) (planner.Draft, error) {
	doc, err := parseFile(cmd.Context(), path)
	if err != nil {
		return planner.Draft{}, err
	}
	rows, err := loadCurriculum(firstSet(f.curriculumDir, os.Getenv("LESSON_CURRICULUM_PATH")))
	if err != nil {
		return planner.Draft{}, err
	}
	return planner.BuildDraft(filepath.Base(path), doc, rows, planner.DraftOptions{
		WeekNo:      f.week,
		ClassName:   f.className,
		Note:        f.note,
		NoPrayer:    f.noPrayer,
		TeacherName: firstSet(f.teacher, os.Getenv("LESSON_TEACHER_NAME")),
	})
}

var (
	draftOpts draftFlags
	draftJSON bool
)

var draftCmd = &cobra.Command{
	Use:   "draft <pdf>",
	Short: "Print the lesson plan draft for one week",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraft,
}

func init() {
	draftOpts.register(draftCmd)
	draftCmd.Flags().BoolVar(&draftJSON, "json", false, "output the draft and report fields as JSON")
	rootCmd.AddCommand(draftCmd)
}

func runDraft(cmd *cobra.Command, args []string) error {
	d, err := draftOpts.build(cmd, args[0])
	if err != nil {
		return err
	}

	if draftJSON {
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal draft: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("%s / %s\n", d.Fields.WeekLabel, d.Fields.ClassName)
	cmd.Printf("주제: %s\n", d.Fields.LessonTopic)
	cmd.Printf("목표: %s\n", d.Fields.ThemeObjective)
	cmd.Println()
	cmd.Println(d.DraftText)
	return nil
}
