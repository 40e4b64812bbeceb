package transform

import (
	"regexp"
	"strings"

	"github.com/starford/logpress/internal/models"
)

var (
	taskRe     = regexp.MustCompile(`^(\s*)- (TODO|DOING|NOW|LATER|WAITING|DONE|CANCELLED)(?:\s+|$)`)
	priorityRe = regexp.MustCompile(`\[#([ABC])\]`)
	plannedRe  = regexp.MustCompile(`(SCHEDULED|DEADLINE):\s*<([^>]+)>`)
)

var taskPrefix = map[models.TaskMarker]string{
	models.TaskTodo:      "- [ ] ",
	models.TaskDoing:     "- [ ] 🔄 ",
	models.TaskNow:       "- [ ] 🔄 ",
	models.TaskLater:     "- [ ] 📅 ",
	models.TaskWaiting:   "- [ ] ⏳ ",
	models.TaskDone:      "- [x] ",
	models.TaskCancelled: "- [x] ❌ ",
}

var priorityIcon = map[string]string{
	"A": "🔴",
	"B": "🟡",
	"C": "🟢",
}

// rewriteTasks renders task markers as checkboxes, priorities as coloured
// indicators and planning lines as date badges.
func rewriteTasks(c *Context, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if m := taskRe.FindStringSubmatch(line); m != nil {
			line = m[1] + taskPrefix[models.TaskMarker(m[2])] + line[len(m[0]):]
		}
		line = priorityRe.ReplaceAllStringFunc(line, func(s string) string {
			return priorityIcon[s[2:3]]
		})
		line = plannedRe.ReplaceAllStringFunc(line, func(s string) string {
			m := plannedRe.FindStringSubmatch(s)
			if m[1] == "SCHEDULED" {
				return "📅 Scheduled: " + m[2]
			}
			return "⏰ Deadline: " + m[2]
		})
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
