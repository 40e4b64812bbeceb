package parser

import (
	"regexp"
	"strings"

	"github.com/starford/logpress/internal/dates"
	"github.com/starford/logpress/internal/models"
)

var (
	bulletRe   = regexp.MustCompile(`^([ \t]*)-(?:[ \t]+(.*)|[ \t]*)$`)
	priorityRe = regexp.MustCompile(`\[#([ABCabc])\]`)
	plannedRe  = regexp.MustCompile(`^(SCHEDULED|DEADLINE):\s*<([^>]+)>`)
)

type frame struct {
	indent int
	block  *models.Block
}

// parseOutline builds the block tree from an indented bullet list. Lines
// that are not bullets continue the current block.
func parseOutline(body string) []*models.Block {
	var (
		roots   []*models.Block
		stack   []frame
		current *models.Block
		inFence bool
	)
	for _, line := range strings.Split(body, "\n") {
		if !inFence {
			if m := bulletRe.FindStringSubmatch(line); m != nil {
				indent := indentWidth(m[1])
				for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
					stack = stack[:len(stack)-1]
				}
				b := &models.Block{Content: m[2]}
				if len(stack) == 0 {
					roots = append(roots, b)
				} else {
					parent := stack[len(stack)-1].block
					b.Depth = parent.Depth + 1
					parent.Children = append(parent.Children, b)
				}
				stack = append(stack, frame{indent: indent, block: b})
				current = b
				parseHead(b)
				inFence = isFence(m[2])
				continue
			}
		}
		if current == nil {
			continue
		}
		t := strings.TrimSpace(line)
		if isFence(t) {
			inFence = !inFence
		}
		if !inFence && (t == "" || continuation(current, t)) {
			continue
		}
		current.Content += "\n" + t
	}
	return roots
}

// continuation consumes property and planning lines. It reports whether t
// was consumed.
func continuation(b *models.Block, t string) bool {
	if m := propertyRe.FindStringSubmatch(t); m != nil {
		v := ParseValue(m[1], m[2])
		b.Properties.Set(m[1], v)
		if strings.EqualFold(m[1], "id") {
			b.ID = v.Raw
		}
		return true
	}
	if m := plannedRe.FindStringSubmatch(t); m != nil {
		d, err := dates.Parse(m[2])
		if err != nil {
			return false
		}
		if m[1] == "SCHEDULED" {
			b.Scheduled = &d
		} else {
			b.Deadline = &d
		}
		return true
	}
	return false
}

// parseHead reads the task marker and priority from the first line. A block
// whose first line is a property is treated as a property block.
func parseHead(b *models.Block) {
	if continuation(b, strings.TrimSpace(b.Content)) {
		b.Content = ""
		return
	}
	fields := strings.Fields(b.Content)
	if len(fields) > 0 {
		if marker, ok := models.ParseTaskMarker(fields[0]); ok {
			b.Task = marker
		}
	}
	if m := priorityRe.FindStringSubmatch(b.Content); m != nil {
		b.Priority = models.Priority(strings.ToUpper(m[1]))
	}
}

func indentWidth(s string) int {
	w := 0
	for _, r := range s {
		if r == '\t' {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func isFence(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "```")
}
