package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractExcel returns each sheet row as a tab-separated line. Rows are
// streamed so a canceled ctx stops the scan at the next row.
func extractExcel(ctx context.Context, content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	var buf strings.Builder
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := writeSheet(ctx, f, sheet, &buf); err != nil {
			return "", err
		}
		buf.WriteByte('\n')
	}
	return strings.TrimSpace(buf.String()), nil
}

func writeSheet(ctx context.Context, f *excelize.File, sheet string, buf *strings.Builder) error {
	rows, err := f.Rows(sheet)
	if err != nil {
		return fmt.Errorf("get rows for sheet %q: %w", sheet, err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("read row in sheet %q: %w", sheet, err)
		}
		buf.WriteString(strings.Join(row, "\t"))
		buf.WriteByte('\n')
	}
	return rows.Error()
}
