package excel

import (
	"strings"

	diffpatch "github.com/sourcegraph/go-diff-patch"
	"github.com/xuri/excelize/v2"
)

// ReadRows returns the rows of the exported sheet in the workbook at path,
// as the formatted cell text. Trailing blank cells and rows are omitted.
func ReadRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(SheetName)
}

// Diff compares the sheet contents of two exported workbooks and returns
// a unified diff, one tab separated line per row. Workbook metadata such
// as timestamps is not compared. The result is empty when the contents
// are equal.
func Diff(oldPath, newPath string) (string, error) {
	oldRows, err := ReadRows(oldPath)
	if err != nil {
		return "", err
	}
	newRows, err := ReadRows(newPath)
	if err != nil {
		return "", err
	}

	oldText, newText := rowsText(oldRows), rowsText(newRows)
	if oldText == newText {
		return "", nil
	}
	return diffpatch.GeneratePatch(newPath, oldText, newText), nil
}

func rowsText(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}
