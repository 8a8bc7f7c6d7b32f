package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TeamMember represents a person tracked by the application.
type TeamMember struct {
	ID   string `json:"id"           db:"id"`
	Name string `json:"name"         db:"name"`
	// Birthday is year-independent; stored as "YYYY-MM-DD" or "MM-DD".
	// Empty means no birthday on record.
	Birthday string `json:"birthday,omitempty" db:"birthday"`
}

// BirthdayMonthDay parses the member's birthday into month and day.
// The year portion, if present, is ignored.
func (m *TeamMember) BirthdayMonthDay() (time.Month, int, error) {
	if m.Birthday == "" {
		return 0, 0, fmt.Errorf("member %s has no birthday", m.ID)
	}

	parts := strings.Split(m.Birthday, "-")
	if len(parts) == 3 {
		parts = parts[1:] // drop the year
	}
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid birthday %q", m.Birthday)
	}

	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid birthday month %q", m.Birthday)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return 0, 0, fmt.Errorf("invalid birthday day %q", m.Birthday)
	}

	return time.Month(month), day, nil
}
