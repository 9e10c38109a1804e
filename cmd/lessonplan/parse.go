package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yko79135/lessonplangenerator/internal/lessonplan"
)

var parseJSON bool

var parseCmd = &cobra.Command{
	Use:   "parse <pdf>",
	Short: "List the weeks found in a syllabus",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "output the parsed document as JSON")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	doc, err := parseFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if parseJSON {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("%d weeks\n", len(doc.Weeks))
	for _, w := range doc.Weeks {
		cmd.Printf("  %s  [%s]\n", w.Label(), strings.Join(lessonplan.ClassCandidates(w), ", "))
	}
	if len(doc.OutlineMap) > 0 {
		codes := make([]string, 0, len(doc.OutlineMap))
		for code := range doc.OutlineMap {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		cmd.Println()
		cmd.Println("Outline:")
		for _, code := range codes {
			cmd.Printf("  %s %s\n", code, doc.OutlineMap[code])
		}
	}
	return nil
}
