// Package value provides the typed value union used at the boundary between
// raw input strings and anything that computes with them (validation, derived
// fields, exports). Inputs bind strings; callers parse them into a Value once
// and never rely on implicit coercion.
package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which member of the union a Value holds.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
	KindDate
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Layouts accepted by Parse. DateLayout is also the canonical storage format.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04"
	DateTimeLayout = "2006-01-02T15:04"
)

var (
	// ErrNotNumber is returned when a raw string cannot be read as a number.
	ErrNotNumber = errors.New("value: not a number")
	// ErrNotDate is returned when a raw string cannot be read as a date.
	ErrNotDate = errors.New("value: not a date")
	// ErrNotTime is returned when a raw string cannot be read as a time of day.
	ErrNotTime = errors.New("value: not a time")
)

// Value is an immutable tagged union of Empty, Text, Number, Date and Time.
type Value struct {
	kind Kind
	text string
	num  float64
	at   time.Time
}

// Empty returns the empty value.
func Empty() Value { return Value{} }

// Text wraps a string. Blank strings collapse to Empty.
func Text(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Value{}
	}
	return Value{kind: KindText, text: s}
}

// Number wraps a float.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Date wraps a calendar date. The time-of-day component is kept so that
// datetime inputs survive a round trip.
func Date(t time.Time) Value { return Value{kind: KindDate, at: t} }

// Clock wraps a time of day expressed as an offset from midnight.
func Clock(hour, minute int) Value {
	return Value{kind: KindTime, at: time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC)}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

func (v Value) Number() float64 { return v.num }

func (v Value) Time() time.Time { return v.at }

func (v Value) TextValue() string { return v.text }

// Float reports the numeric content of v. Empty values read as zero so sums
// over partially filled rows behave like a spreadsheet.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindEmpty:
		return 0, true
	default:
		return 0, false
	}
}

// Format renders the value in its canonical string form. Empty values format
// to "" so callers decide on placeholders.
func (v Value) Format() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return FormatNumber(v.num)
	case KindDate:
		if v.at.Hour() != 0 || v.at.Minute() != 0 {
			return v.at.Format(DateTimeLayout)
		}
		return v.at.Format(DateLayout)
	case KindTime:
		return v.at.Format(TimeLayout)
	default:
		return ""
	}
}

func (v Value) String() string { return v.Format() }

// Equal compares two values by kind and content.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == other.text
	case KindNumber:
		return v.num == other.num
	case KindDate, KindTime:
		return v.at.Equal(other.at)
	default:
		return true
	}
}

// FormatNumber prints integers without a fractional part and everything else
// rounded to two decimals, trailing zeros trimmed.
func FormatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	rounded := math.Round(f*100) / 100
	if rounded == 0 {
		return "0"
	}
	out := strconv.FormatFloat(rounded, 'f', 2, 64)
	out = strings.TrimRight(out, "0")
	return strings.TrimSuffix(out, ".")
}

// ParseNumber reads a number, tolerating thousands separators and surrounding
// whitespace. Blank input yields Empty.
func ParseNumber(raw string) (Value, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Empty(), nil
	}
	cleaned := strings.ReplaceAll(trimmed, ",", "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Empty(), fmt.Errorf("%w: %q", ErrNotNumber, raw)
	}
	return Number(f), nil
}

// ParseDate reads an ISO date or a datetime-local string.
func ParseDate(raw string) (Value, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Empty(), nil
	}
	for _, layout := range []string{DateLayout, DateTimeLayout, time.RFC3339} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return Date(t), nil
		}
	}
	return Empty(), fmt.Errorf("%w: %q", ErrNotDate, raw)
}

// ParseTime reads an HH:MM time of day.
func ParseTime(raw string) (Value, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Empty(), nil
	}
	for _, layout := range []string{TimeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return Clock(t.Hour(), t.Minute()), nil
		}
	}
	return Empty(), fmt.Errorf("%w: %q", ErrNotTime, raw)
}

// ParseAs dispatches to the parser for kind. Text parsing never fails.
func ParseAs(kind Kind, raw string) (Value, error) {
	switch kind {
	case KindNumber:
		return ParseNumber(raw)
	case KindDate:
		return ParseDate(raw)
	case KindTime:
		return ParseTime(raw)
	case KindEmpty:
		return Empty(), nil
	default:
		return Text(raw), nil
	}
}
