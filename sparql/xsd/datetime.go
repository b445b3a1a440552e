package xsd

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DateTimeParts exposes the YEAR/MONTH/DAY/HOURS/MINUTES/SECONDS/
// TIMEZONE/TZ expression accessors (spec.md §4.2). SECONDS returns a
// decimal to carry fractional microseconds; the others return integers.
type DateTimeParts struct {
	Year, Month, Day       int
	Hours, Minutes         int
	Seconds                decimal.Decimal
	TZ                     string // textual zone, e.g. "+02:00" or "Z"; "" if the lexical carried none
	HasTimezone            bool
}

// Accessors decomposes v (KindDateTime or KindDate) into its parts.
func Accessors(v Value) (DateTimeParts, error) {
	if v.Kind != KindDateTime && v.Kind != KindDate {
		return DateTimeParts{}, fmt.Errorf("xsd: accessors on non-temporal kind")
	}
	t := v.Time
	name, offset := t.Zone()
	parts := DateTimeParts{
		Year: t.Year(), Month: int(t.Month()), Day: t.Day(),
		Hours: t.Hour(), Minutes: t.Minute(),
	}
	nanos := decimal.New(int64(t.Nanosecond()), -9)
	parts.Seconds = decimal.NewFromInt(int64(t.Second())).Add(nanos)
	if name != "" && name != "UTC" || offset != 0 {
		parts.HasTimezone = true
		sign := "+"
		off := offset
		if off < 0 {
			sign = "-"
			off = -off
		}
		parts.TZ = fmt.Sprintf("%s%02d:%02d", sign, off/3600, (off%3600)/60)
	} else if v.Kind == KindDateTime || v.Kind == KindDate {
		// UTC ("Z") counts as a defined timezone for TIMEZONE()/TZ().
		parts.HasTimezone = true
		parts.TZ = "Z"
	}
	return parts, nil
}
