package curriculum

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for sheet files that are not CSV, XLSX or YAML.
var ErrUnsupportedFormat = errors.New("unsupported curriculum sheet format")

var weekNumberRe = regexp.MustCompile(`\d+`)

// ParseFile reads a curriculum sheet, choosing the decoder by file extension.
func ParseFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening curriculum sheet: %w", err)
	}
	defer f.Close()
	return Parse(f, filepath.Ext(path))
}

// Parse decodes a curriculum sheet in the format named by ext (".csv",
// ".xlsx", ".yaml" or ".yml").
func Parse(r io.Reader, ext string) ([]Row, error) {
	var (
		records []map[string]string
		err     error
	)
	switch strings.ToLower(ext) {
	case ".csv":
		records, err = readCSV(r)
	case ".xlsx":
		records, err = readXLSX(r)
	case ".yaml", ".yml":
		records, err = readYAML(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	return Normalize(records), nil
}

// Normalize maps raw header/value records onto Rows using the header aliases.
// Headers are matched case-insensitively; rows with no usable value are dropped.
func Normalize(records []map[string]string) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		lower := make(map[string]string, len(rec))
		for k, v := range rec {
			lower[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
		}
		pick := func(keys ...string) string {
			for _, k := range keys {
				if v := lower[k]; v != "" {
					return v
				}
			}
			return ""
		}

		row := Row{
			WeekNo:    parseWeek(pick(weekAliases...)),
			ClassName: pick(classAliases...),
			Topic:     pick(topicAliases...),
			Objective: pick(objectiveAliases...),
			Details:   pick(detailsAliases...),
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func parseWeek(s string) *int {
	m := weekNumberRe.FindString(s)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}

func readCSV(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	table, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(table) > 0 && len(table[0]) > 0 {
		table[0][0] = strings.TrimPrefix(table[0][0], "\ufeff")
	}
	return tableRecords(table), nil
}

func readXLSX(r io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	table, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return tableRecords(table), nil
}

func readYAML(r io.Reader) ([]map[string]string, error) {
	var raw []map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	records := make([]map[string]string, 0, len(raw))
	for _, item := range raw {
		rec := make(map[string]string, len(item))
		for k, v := range item {
			if v == nil {
				continue
			}
			rec[k] = fmt.Sprint(v)
		}
		records = append(records, rec)
	}
	return records, nil
}

// tableRecords turns a header row plus data rows into keyed records. Short
// rows are padded with blanks.
func tableRecords(table [][]string) []map[string]string {
	if len(table) == 0 {
		return nil
	}
	header := table[0]
	records := make([]map[string]string, 0, len(table)-1)
	for _, line := range table[1:] {
		rec := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(line) {
				rec[h] = line[i]
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}
