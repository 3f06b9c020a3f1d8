package courseio

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/academy-dev/academy/internal/curriculum"
)

const outlineSheet = "Outline"

var outlineHeader = []any{"Module", "Lesson", "Task", "Type", "Language", "Options", "Expected output"}

// WriteOutline writes an xlsx review sheet with one row per task. Lessons
// without tasks still get a row. Correct quiz options are prefixed with "*".
func WriteOutline(w io.Writer, c curriculum.Course) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", outlineSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(outlineSheet, "A1", &outlineHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(outlineSheet, "A1", "G1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	if err := f.SetPanes(outlineSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	if err := f.SetColWidth(outlineSheet, "A", "C", 32); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.SetColWidth(outlineSheet, "F", "G", 48); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	row := 2
	put := func(values []any) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		row++
		return f.SetSheetRow(outlineSheet, cell, &values)
	}

	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			if len(l.Tasks) == 0 {
				if err := put([]any{m.Title, l.Title}); err != nil {
					return fmt.Errorf("write lesson row: %w", err)
				}
				continue
			}
			for _, t := range l.Tasks {
				if err := put(taskRow(m, l, t)); err != nil {
					return fmt.Errorf("write task row: %w", err)
				}
			}
		}
		if len(m.Lessons) == 0 {
			if err := put([]any{m.Title}); err != nil {
				return fmt.Errorf("write module row: %w", err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func taskRow(m curriculum.Module, l curriculum.Lesson, t curriculum.Task) []any {
	lang, _ := curriculum.LanguageName(t.Language)
	var opts []string
	for _, o := range t.Options {
		if o.IsCorrect {
			opts = append(opts, "*"+o.Text)
		} else {
			opts = append(opts, o.Text)
		}
	}
	return []any{m.Title, l.Title, t.Title, string(t.Type), lang, strings.Join(opts, "; "), t.CorrectOutput}
}
