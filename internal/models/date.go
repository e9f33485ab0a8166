package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout — формат дат API (DateField).
const DateLayout = "2006-01-02"

// Date — календарная дата без времени и зоны.
type Date struct {
	t time.Time
}

// NewDate собирает дату; переполнение дня нормализуется как в time.Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf берёт календарную дату момента t в его собственной зоне.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate принимает "YYYY-MM-DD"; у значения с временем ("YYYY-MM-DDT...")
// берётся только дата.
func ParseDate(s string) (Date, error) {
	if len(s) > len(DateLayout) && s[len(DateLayout)] == 'T' {
		s = s[:len(DateLayout)]
	}

	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}

	return Date{t: t}, nil
}

// MustDate — ParseDate с паникой; для констант и тестов.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}

	return d
}

func (d Date) IsZero() bool { return d.t.IsZero() }
func (d Date) Time() time.Time { return d.t }
func (d Date) Year() int { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int { return d.t.Day() }

// AddDays сдвигает дату на n дней.
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}

	return d.t.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}

	v, err := ParseDate(s)
	if err != nil {
		return err
	}

	*d = v
	return nil
}

// Period — необязательный интервал дат для отчётов и дашборда
// (query-параметры from_date/to_date).
type Period struct {
	From Date
	To   Date
}

// Validate проверяет, что From не позже To.
func (p Period) Validate() error {
	if !p.From.IsZero() && !p.To.IsZero() && p.To.Before(p.From) {
		return invalid("to_date", "Data final anterior à data inicial")
	}

	return nil
}
