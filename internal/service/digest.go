package service

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"todoflow/internal/model"
	"todoflow/internal/recurrence"
)

// TaskSource is the slice of the store the digest reads.
type TaskSource interface {
	Tasks() []model.Task
	TodayTasks() []model.Task
	Categories() []model.Category
}

// DigestService builds human-readable summaries for daily notifications.
type DigestService struct {
	source TaskSource
}

func NewDigestService(source TaskSource) *DigestService {
	return &DigestService{source: source}
}

// DailyDigest renders today's working set and active recurring
// templates as Telegram-flavored HTML.
func (s *DigestService) DailyDigest(now time.Time) string {
	catNames := make(map[string]string)
	for _, cat := range s.source.Categories() {
		catNames[cat.ID] = cat.Name
	}

	today := s.source.TodayTasks()
	sort.SliceStable(today, func(i, j int) bool {
		a, b := today[i], today[j]
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return a.CreatedAt.After(b.CreatedAt)
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		default:
			return a.DueDate.Before(*b.DueDate)
		}
	})

	var recurring []model.Task
	for _, t := range s.source.Tasks() {
		if t.IsRecurringTemplate() && !t.IsDeleted {
			recurring = append(recurring, t)
		}
	}

	var b strings.Builder
	b.WriteString("📋 <b>Daily digest</b>\n")
	b.WriteString(fmt.Sprintf("🗓 %s", now.Format("Mon, 02 Jan 2006")))
	if name := recurrence.HolidayName(now); name != "" {
		b.WriteString(fmt.Sprintf(" · 🎌 %s", name))
	} else if recurrence.IsWeekend(now) {
		b.WriteString(" · weekend")
	}
	b.WriteString("\n\n")

	b.WriteString("🔥 <b>Today</b>\n")
	if len(today) == 0 {
		b.WriteString("— nothing planned for today\n")
	} else {
		for _, t := range today {
			b.WriteString(formatTask(t, catNames, now))
		}
	}

	b.WriteString("\n♻️ <b>Recurring</b>\n")
	if len(recurring) == 0 {
		b.WriteString("— no recurring tasks\n")
	} else {
		for _, t := range recurring {
			b.WriteString(formatRecurring(t, now, catNames))
		}
	}

	return strings.TrimSpace(b.String())
}

func formatTask(t model.Task, catNames map[string]string, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	if t.DueDate != nil {
		d := t.DueDate.In(now.Location())
		switch {
		case now.After(d) && !recurrence.SameDay(d, now):
			icon = "⚠️"
		case d.Sub(now) <= 48*time.Hour:
			icon = "⏳"
		}
	}

	title := html.EscapeString(strings.TrimSpace(t.Title))
	if t.Emoji != "" {
		title = t.Emoji + " " + title
	}
	sb.WriteString(fmt.Sprintf("%s %s", icon, title))

	if name, ok := catNames[t.CategoryID]; ok && strings.TrimSpace(name) != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(strings.TrimSpace(name))))
	}

	if t.DueDate != nil {
		d := t.DueDate.In(now.Location())
		due := d.Format("2006-01-02")
		if t.DueTime != "" {
			due += " " + t.DueTime
		}
		if now.After(d) && !recurrence.SameDay(d, now) {
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s — <b>overdue</b>", due))
		} else {
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s", due))
		}
	}

	sb.WriteByte('\n')
	return sb.String()
}

func formatRecurring(t model.Task, now time.Time, catNames map[string]string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("♻️ %s", html.EscapeString(strings.TrimSpace(t.Title))))
	if name, ok := catNames[t.CategoryID]; ok && strings.TrimSpace(name) != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(strings.TrimSpace(name))))
	}

	next := recurrence.NextDueDate(t.Recurrence, t.DueDate, now)
	sb.WriteString(fmt.Sprintf("\n   📆 %s, next %s", t.Recurrence.Kind, next.Format("2006-01-02")))
	sb.WriteByte('\n')
	return sb.String()
}
