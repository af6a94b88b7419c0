package validation

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"taskhub/internal/model"
)

// queryReader coerces query string values. Empty values count as absent.
type queryReader struct {
	values url.Values
	c      *collector
}

func (q queryReader) raw(key string) (string, bool) {
	s := strings.TrimSpace(q.values.Get(key))
	return s, s != ""
}

func (q queryReader) str(key, def string) string {
	if s, ok := q.raw(key); ok {
		return s
	}
	return def
}

func (q queryReader) integer(key string, def int) int {
	if p := q.intPtr(key); p != nil {
		return *p
	}
	return def
}

func (q queryReader) intPtr(key string) *int {
	s, ok := q.raw(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		q.c.add(locationQuery+"."+key, "must be an integer")
		return nil
	}
	return &n
}

func (q queryReader) int64Ptr(key string) *int64 {
	s, ok := q.raw(key)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		q.c.add(locationQuery+"."+key, "must be an integer")
		return nil
	}
	return &n
}

func (q queryReader) boolean(key string, def bool) bool {
	s, ok := q.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		q.c.add(locationQuery+"."+key, "must be true or false")
		return def
	}
	return b
}

func (q queryReader) date(key string) *model.Date {
	s, ok := q.raw(key)
	if !ok {
		return nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		q.c.add(locationQuery+"."+key, "must be a valid date")
		return nil
	}
	return &d
}

// bodyReader decodes one JSON member at a time so a bad field does not hide
// problems in the others. JSON null counts as absent.
type bodyReader struct {
	fields map[string]json.RawMessage
	c      *collector
}

func newBodyReader(body []byte, c *collector) bodyReader {
	r := bodyReader{fields: map[string]json.RawMessage{}, c: c}
	if len(bytes.TrimSpace(body)) == 0 {
		return r
	}
	if err := json.Unmarshal(body, &r.fields); err != nil {
		c.add(locationBody, "must be a JSON object")
	}
	return r
}

func (b bodyReader) member(key string) (json.RawMessage, bool) {
	raw, ok := b.fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func (b bodyReader) decode(key string, dst any, msg string) bool {
	raw, ok := b.member(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		b.c.add(locationBody+"."+key, msg)
		return false
	}
	return true
}

func (b bodyReader) strPtr(key string) *string {
	var s string
	if !b.decode(key, &s, "must be a string") {
		return nil
	}
	return &s
}

func (b bodyReader) str(key string) string {
	if p := b.strPtr(key); p != nil {
		return *p
	}
	return ""
}

func (b bodyReader) intPtr(key string) *int {
	var n int
	if !b.decode(key, &n, "must be an integer") {
		return nil
	}
	return &n
}

func (b bodyReader) int64Ptr(key string) *int64 {
	var n int64
	if !b.decode(key, &n, "must be an integer") {
		return nil
	}
	return &n
}

func (b bodyReader) boolPtr(key string) *bool {
	var v bool
	if !b.decode(key, &v, "must be a boolean") {
		return nil
	}
	return &v
}

func (b bodyReader) stringList(key string) []string {
	var out []string
	if !b.decode(key, &out, "must be an array of strings") {
		return nil
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func (b bodyReader) date(key string) *model.Date {
	s := b.strPtr(key)
	if s == nil {
		return nil
	}
	d, err := model.ParseDate(*s)
	if err != nil {
		b.c.add(locationBody+"."+key, "must be a valid date")
		return nil
	}
	return &d
}

func (b bodyReader) reminders(key string) model.ReminderList {
	var raw []struct {
		Date string `json:"date"`
	}
	if !b.decode(key, &raw, "must be an array of reminders") {
		return nil
	}
	out := make(model.ReminderList, 0, len(raw))
	for i, r := range raw {
		at, err := parseInstant(r.Date)
		if err != nil {
			b.c.add(locationBody+"."+key+"["+strconv.Itoa(i)+"].date", "must be a valid date and time")
			continue
		}
		out = append(out, model.AdditionalReminder{Date: at})
	}
	return out
}

func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time, nil
}
