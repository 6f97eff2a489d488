// Package csvparse implements a tolerant delimited-text parser for contact
// uploads. Unlike encoding/csv it accepts comma and tab cell delimiters in
// the same file, quoted fields spanning newlines, and silently drops blank
// rows, which is what real-world exported contact lists need.
package csvparse

import "strings"

// Parse scans raw text in a single left-to-right pass and returns the rows,
// each a list of trimmed cells. A `"` toggles quote mode; an escaped `""`
// inside quotes emits one literal quote. Outside quotes `,` or tab ends a
// cell and `\n`/`\r` (with `\r\n` as one delimiter) ends a row. A row whose
// cells are all blank is discarded. The final unterminated row is flushed at
// end of input.
func Parse(raw string) [][]string {
	var rows [][]string
	var row []string
	var cell strings.Builder
	inQuotes := false

	endCell := func() {
		row = append(row, strings.TrimSpace(cell.String()))
		cell.Reset()
	}
	endRow := func() {
		endCell()
		for _, c := range row {
			if c != "" {
				rows = append(rows, row)
				break
			}
		}
		row = nil
	}

	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if inQuotes {
			if ch == '"' {
				if i+1 < len(raw) && raw[i+1] == '"' {
					cell.WriteByte('"')
					i++
				} else {
					inQuotes = false
				}
			} else {
				cell.WriteByte(ch)
			}
			continue
		}
		switch ch {
		case '"':
			inQuotes = true
		case ',', '\t':
			endCell()
		case '\n':
			endRow()
		case '\r':
			if i+1 < len(raw) && raw[i+1] == '\n' {
				i++
			}
			endRow()
		default:
			cell.WriteByte(ch)
		}
	}

	if cell.Len() > 0 || len(row) > 0 {
		endRow()
	}
	return rows
}
