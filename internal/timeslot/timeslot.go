// Package timeslot faz a aritmética de horários "HH:MM" usada em grades,
// slots e códigos promocionais.
package timeslot

import (
	"errors"
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

var ErrInvalidTime = errors.New("timeslot: invalid HH:MM value")
var ErrInvalidRange = errors.New("timeslot: end must be after start")

type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ToMinutes converte "HH:MM" em minutos desde 00:00. "24:00" é aceito como fim do dia.
func ToMinutes(hm string) (int, error) {
	if len(hm) != 5 || hm[2] != ':' {
		return 0, ErrInvalidTime
	}

	h, okH := twoDigits(hm[0:2])
	m, okM := twoDigits(hm[3:5])
	if !okH || !okM || m > 59 {
		return 0, ErrInvalidTime
	}

	total := h*60 + m
	if total > minutesPerDay {
		return 0, ErrInvalidTime
	}
	return total, nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

// FromMinutes é o inverso de ToMinutes; 1440 vira "24:00".
func FromMinutes(m int) string {
	if m == minutesPerDay {
		return "24:00"
	}
	m = ((m % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func endMinutes(hm string) (int, error) {
	m, err := ToMinutes(hm)
	if err != nil {
		return 0, err
	}
	// fechamento à meia-noite
	if m == 0 {
		return minutesPerDay, nil
	}
	return m, nil
}

func bounds(start, end string) (int, int, error) {
	s, err := ToMinutes(start)
	if err != nil {
		return 0, 0, err
	}
	e, err := endMinutes(end)
	if err != nil {
		return 0, 0, err
	}
	if e <= s {
		return 0, 0, ErrInvalidRange
	}
	return s, e, nil
}

// Duration devolve a duração em minutos entre start e end.
func Duration(start, end string) (int, error) {
	s, e, err := bounds(start, end)
	if err != nil {
		return 0, err
	}
	return e - s, nil
}

// FormatDuration: 45 → "45 min", 120 → "2h", 90 → "1h30".
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%02d", h, m)
}

// Overlaps considera intervalos semiabertos: encostar não é sobrepor.
func Overlaps(a, b Range) (bool, error) {
	as, ae, err := bounds(a.Start, a.End)
	if err != nil {
		return false, err
	}
	bs, be, err := bounds(b.Start, b.End)
	if err != nil {
		return false, err
	}
	return as < be && bs < ae, nil
}

// Contains diz se inner cabe inteiro em outer.
func Contains(outer, inner Range) (bool, error) {
	os, oe, err := bounds(outer.Start, outer.End)
	if err != nil {
		return false, err
	}
	is, ie, err := bounds(inner.Start, inner.End)
	if err != nil {
		return false, err
	}
	return is >= os && ie <= oe, nil
}

// Split corta [open, close) em faixas de step minutos; a sobra final é descartada.
func Split(open, close string, step int) ([]Range, error) {
	if step <= 0 {
		return nil, ErrInvalidRange
	}
	s, e, err := bounds(open, close)
	if err != nil {
		return nil, err
	}

	var out []Range
	for cur := s; cur+step <= e; cur += step {
		out = append(out, Range{
			Start: FromMinutes(cur),
			End:   FromMinutes(cur + step),
		})
	}
	return out, nil
}

// Combine junta a data (no fuso loc) com um "HH:MM".
func Combine(date time.Time, hm string, loc *time.Location) (time.Time, error) {
	m, err := ToMinutes(hm)
	if err != nil {
		return time.Time{}, err
	}
	d := date.In(loc)
	base := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return base.Add(time.Duration(m) * time.Minute), nil
}
