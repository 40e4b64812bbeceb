package transform

import (
	"regexp"
	"strings"
)

var separatorCellRe = regexp.MustCompile(`^\s*:?-+:?\s*$`)

// repairTables fixes separator rows whose column count differs from the
// header and inserts a missing separator. Data rows are never changed.
func repairTables(c *Context, text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		if _, ok := tableRow(lines[i]); !ok {
			out = append(out, lines[i])
			i++
			continue
		}
		j := i
		for j < len(lines) {
			if _, ok := tableRow(lines[j]); !ok {
				break
			}
			j++
		}
		out = append(out, repairTable(lines[i:j])...)
		i = j
	}
	return strings.Join(out, "\n")
}

func repairTable(rows []string) []string {
	if len(rows) < 2 {
		return rows
	}
	header, _ := tableRow(rows[0])
	width := len(splitCells(header))
	second, _ := tableRow(rows[1])
	cells := splitCells(second)
	prefix := rows[1][:len(rows[1])-len(second)]

	if !isSeparator(cells) {
		sep := make([]string, width)
		for k := range sep {
			sep[k] = "---"
		}
		fixed := append([]string{rows[0]}, continuationPrefix(rows[0], prefix)+joinCells(sep))
		return append(fixed, rows[1:]...)
	}
	if len(cells) == width {
		return rows
	}
	sep := make([]string, width)
	for k := range sep {
		if k < len(cells) {
			sep[k] = strings.TrimSpace(cells[k])
		} else {
			sep[k] = "---"
		}
	}
	fixed := append([]string(nil), rows...)
	fixed[1] = prefix + joinCells(sep)
	return fixed
}

// tableRow returns the "|..." part of line when line is a table row, bare
// or as the first line of a bullet.
func tableRow(line string) (string, bool) {
	t := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(t, "- ") {
		t = strings.TrimLeft(t[2:], " \t")
	}
	if !strings.HasPrefix(t, "|") || len(strings.TrimSpace(t)) < 2 {
		return "", false
	}
	return t, true
}

// continuationPrefix is the indentation for a row following header. When the
// header opens a bullet, following rows are indented under it.
func continuationPrefix(header, fallback string) string {
	t := strings.TrimLeft(header, " \t")
	ws := header[:len(header)-len(t)]
	if strings.HasPrefix(t, "- ") {
		return ws + "  "
	}
	if fallback != "" {
		return fallback
	}
	return ws
}

// splitCells splits a row on unescaped pipes, dropping the outer ones.
func splitCells(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	if strings.HasSuffix(row, "|") && !strings.HasSuffix(row, `\|`) {
		row = row[:len(row)-1]
	}
	var cells []string
	var cur strings.Builder
	for i := 0; i < len(row); i++ {
		if row[i] == '\\' && i+1 < len(row) && row[i+1] == '|' {
			cur.WriteString(`\|`)
			i++
			continue
		}
		if row[i] == '|' {
			cells = append(cells, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(row[i])
	}
	return append(cells, cur.String())
}

func isSeparator(cells []string) bool {
	for _, c := range cells {
		if !separatorCellRe.MatchString(c) {
			return false
		}
	}
	return len(cells) > 0
}

func joinCells(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}
