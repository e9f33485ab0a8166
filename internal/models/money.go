// models содержит типы полезной нагрузки REST API Controlaê:
// запросы с проверкой обязательных полей и ответы ресурсов.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAmount — строка не является денежной суммой.
var ErrInvalidAmount = errors.New("invalid amount")

// Amount — денежная сумма в центавос (1/100 реала).
//
// Особенности:
//   - из JSON принимается и число (12.5), и строка-десятичная ("12.50"),
//     как их отдаёт DecimalField бэкенда;
//   - в JSON пишется строкой с двумя знаками после точки.
type Amount int64

// Reais собирает сумму из целой и дробной части.
func Reais(units, cents int64) Amount {
	if units < 0 {
		return Amount(units*100 - cents)
	}

	return Amount(units*100 + cents)
}

// ParseAmount разбирает "12", "12.5", "12,50", "-3.05".
// Больше двух знаков после разделителя округляются до центавос (half away from zero).
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart, frac := s, ""
	if i := strings.IndexAny(s, ".,"); i >= 0 {
		intPart, frac = s[:i], s[i+1:]
	}

	if intPart == "" && frac == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if intPart == "" {
		intPart = "0"
	}
	if !digitsOnly(intPart) || !digitsOnly(frac) || len(intPart) > 15 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	var cents int64
	switch {
	case len(frac) == 0:
	case len(frac) == 1:
		cents = int64(frac[0]-'0') * 10
	default:
		cents = int64(frac[0]-'0')*10 + int64(frac[1]-'0')
		if len(frac) > 2 && frac[2] >= '5' {
			cents++
		}
	}

	total := units*100 + cents
	if neg {
		total = -total
	}

	return Amount(total), nil
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// String — "12.50", "-3.05".
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}

	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// BRL — форматирование для вывода пользователю: "R$ 1.234,56".
func (a Amount) BRL() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}

	units := strconv.FormatInt(v/100, 10)
	var b strings.Builder
	for i, r := range units {
		if i > 0 && (len(units)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	return fmt.Sprintf("%sR$ %s,%02d", sign, b.String(), v%100)
}

// Positive сообщает, что сумма больше нуля.
func (a Amount) Positive() bool { return a > 0 }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
		}
		raw = n.String()
		if strings.ContainsAny(raw, "eE") {
			f, err := n.Float64()
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
			}
			raw = strconv.FormatFloat(f, 'f', 3, 64)
		}
	}

	v, err := ParseAmount(raw)
	if err != nil {
		return err
	}

	*a = v
	return nil
}
