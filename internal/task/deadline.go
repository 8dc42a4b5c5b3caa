package task

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const (
	// EditLayout is the editable local form of a deadline, the same shape an
	// HTML datetime-local input produces.
	EditLayout = "2006-01-02T15:04"
	// DisplayLayout is how deadlines are shown to the user.
	DisplayLayout = "2006-01-02 15:04"
)

// Offset layouts tried after RFC 3339, which requires seconds.
var offsetLayouts = []string{
	"2006-01-02T15:04Z07:00",
}

// Layouts without an offset; values in these forms are read as local time.
var localLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Deadline is an optional point in time. The raw wire value is kept verbatim
// so it can be resent unchanged; a set but unparsable value is kept as well
// and reported through Valid.
type Deadline struct {
	raw     string
	at      time.Time
	valid   bool
	numeric bool
}

// ParseDeadline parses raw in the local time zone. An empty string yields an
// unset deadline. Parsing never fails; check Valid.
func ParseDeadline(raw string) Deadline {
	return ParseDeadlineIn(raw, time.Local)
}

// ParseDeadlineIn is ParseDeadline with an explicit zone for offset-less input.
func ParseDeadlineIn(raw string, loc *time.Location) Deadline {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Deadline{}
	}
	d := Deadline{raw: raw}
	for _, layout := range append([]string{time.RFC3339Nano}, offsetLayouts...) {
		if at, err := time.Parse(layout, raw); err == nil {
			d.at, d.valid = at, true
			return d
		}
	}
	for _, layout := range localLayouts {
		if at, err := time.ParseInLocation(layout, raw, loc); err == nil {
			d.at, d.valid = at, true
			return d
		}
	}
	return d
}

// IsSet reports whether any deadline value is present, valid or not.
func (d Deadline) IsSet() bool { return d.raw != "" }

// Valid reports whether the deadline is set and parsed.
func (d Deadline) Valid() bool { return d.valid }

// Time returns the parsed instant; zero when not Valid.
func (d Deadline) Time() time.Time { return d.at }

// Raw returns the value as received from the wire or the user.
func (d Deadline) Raw() string { return d.raw }

// Editable renders the deadline in local time for an edit form.
func (d Deadline) Editable() string {
	if !d.valid {
		return d.raw
	}
	return d.at.Local().Format(EditLayout)
}

// Display renders the deadline in local time, "" when unset.
func (d Deadline) Display() string {
	if !d.IsSet() {
		return ""
	}
	if !d.valid {
		return "invalid date"
	}
	return d.at.Local().Format(DisplayLayout)
}

func (d Deadline) MarshalJSON() ([]byte, error) {
	if !d.IsSet() {
		return []byte("null"), nil
	}
	if d.numeric {
		return []byte(d.raw), nil
	}
	return json.Marshal(d.raw)
}

// UnmarshalJSON accepts a string, null, or a number of milliseconds since
// the Unix epoch.
func (d *Deadline) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = Deadline{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = ParseDeadline(s)
		return nil
	}
	raw := string(data)
	*d = Deadline{raw: raw, numeric: true}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		d.at, d.valid = time.UnixMilli(ms), true
	}
	return nil
}
