package template

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// DefaultDateFormat is the strftime layout datetimeformat uses without an argument.
const DefaultDateFormat = "%H:%M / %d-%m-%Y"

// DatetimeFormat formats t with a strftime layout.
func DatetimeFormat(t time.Time, format string) string {
	if format == "" {
		format = DefaultDateFormat
	}
	return strftime.Format(format, t)
}

// OrdinalSuffix returns the day of month with its English suffix: 1st, 2nd, 11th, 23rd.
func OrdinalSuffix(day int) string {
	suffix := "th"
	if (day < 4 || day > 20) && (day < 24 || day > 30) {
		switch day % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(day) + suffix
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t != nil {
			return *t, nil
		}
	case string:
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(t))
		if err != nil {
			return time.Time{}, fmt.Errorf("not a date: %q", t)
		}
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("not a date: %T", v)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	case time.Time:
		return n.Day(), nil
	}
	return 0, fmt.Errorf("not a number: %T", v)
}
