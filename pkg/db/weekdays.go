package db

import (
	"strconv"
	"strings"
)

// ParseWeekdays decodes the comma-separated weekday set both store backends
// persist work patterns with. Unparseable entries are dropped; downstream
// normalization discards out-of-range values.
func ParseWeekdays(s string) []int {
	if s == "" {
		return nil
	}
	var days []int
	for _, part := range strings.Split(s, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	return days
}
