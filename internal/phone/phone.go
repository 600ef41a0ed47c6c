// Package phone normaliza números da Costa do Marfim (plano de 10 dígitos de 2021).
package phone

import (
	"errors"
	"strings"
)

const CountryCode = "225"

var ErrInvalid = errors.New("phone: invalid ivorian number")

type Operator string

const (
	Moov   Operator = "moov"
	MTN    Operator = "mtn"
	Orange Operator = "orange"
)

var prefixes = map[string]struct {
	op     Operator
	mobile bool
}{
	"01": {Moov, true},
	"05": {MTN, true},
	"07": {Orange, true},
	"21": {Moov, false},
	"25": {MTN, false},
	"27": {Orange, false},
}

// National devolve os 10 dígitos nacionais, migrando números antigos de 8 dígitos.
func National(raw string) (string, error) {
	digits, err := clean(raw)
	if err != nil {
		return "", err
	}

	switch len(digits) {
	case 10:
		if _, ok := prefixes[digits[:2]]; !ok {
			return "", ErrInvalid
		}
		return digits, nil
	case 8:
		return migrate(digits)
	default:
		return "", ErrInvalid
	}
}

func clean(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "", "/", "").Replace(s)

	switch {
	case strings.HasPrefix(s, "+"):
		if !strings.HasPrefix(s, "+"+CountryCode) {
			return "", ErrInvalid
		}
		s = s[len(CountryCode)+1:]
	case strings.HasPrefix(s, "00"+CountryCode):
		s = s[len(CountryCode)+2:]
	case strings.HasPrefix(s, CountryCode) && (len(s) == 11 || len(s) == 13):
		s = s[len(CountryCode):]
	}

	if s == "" {
		return "", ErrInvalid
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", ErrInvalid
		}
	}
	return s, nil
}

// migrate aplica a regra de 2021: fixos ganham 27, celulares o prefixo da operadora
// pelo segundo dígito (0-3 Moov, 4-6 MTN, 7-9 Orange).
func migrate(old string) (string, error) {
	switch old[0] {
	case '2', '3':
		return "27" + old, nil
	case '1':
		return "", ErrInvalid
	}

	switch old[1] {
	case '0', '1', '2', '3':
		return "01" + old, nil
	case '4', '5', '6':
		return "05" + old, nil
	default:
		return "07" + old, nil
	}
}

// Normalize → "+225XXXXXXXXXX".
func Normalize(raw string) (string, error) {
	n, err := National(raw)
	if err != nil {
		return "", err
	}
	return "+" + CountryCode + n, nil
}

// Format → "+225 07 12 34 56 78".
func Format(raw string) (string, error) {
	n, err := National(raw)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("+" + CountryCode)
	for i := 0; i < len(n); i += 2 {
		b.WriteByte(' ')
		b.WriteString(n[i : i+2])
	}
	return b.String(), nil
}

func Validate(raw string) error {
	_, err := National(raw)
	return err
}

func OperatorOf(raw string) (Operator, error) {
	n, err := National(raw)
	if err != nil {
		return "", err
	}
	return prefixes[n[:2]].op, nil
}

func IsMobile(raw string) bool {
	n, err := National(raw)
	if err != nil {
		return false
	}
	return prefixes[n[:2]].mobile
}
