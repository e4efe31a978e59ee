package calendar

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/codeGROOVE-dev/calTZ/pkg/civil"
	"github.com/codeGROOVE-dev/calTZ/pkg/sentinel"
)

// Symbols holds the locale-specific names used when rendering a pattern.
type Symbols struct {
	Months        []string // 12 entries, Farvardin or January first
	ShortMonths   []string // optional; defaults to the first three letters of Months
	Weekdays      []string // 7 entries, Sunday first
	ShortWeekdays []string // optional; defaults to the first three letters of Weekdays
	Era           string
	AM, PM        string
	Digits        []rune // optional; 10 entries replacing 0-9
}

// Format renders dt, a date-time of sys, with an LDML-style pattern.
//
// Supported fields: y yy yyyy, M MM MMM MMMM, d dd, E EEE EEEE, H HH, h hh,
// m mm, s ss, a, G. Text inside single quotes is copied verbatim and '' is a
// literal quote. Any other ASCII letter is rejected.
func Format(pattern string, sys System, dt civil.DateTime, sym Symbols) (string, error) {
	if pattern == "" {
		return "", sentinel.InvalidArgument("pattern", "must not be empty")
	}

	var b strings.Builder
	for i := 0; i < len(pattern); {
		c := pattern[i]

		if c == '\'' {
			end := i + 1
			if end < len(pattern) && pattern[end] == '\'' {
				b.WriteByte('\'')
				i += 2
				continue
			}
			for end < len(pattern) && pattern[end] != '\'' {
				end++
			}
			if end >= len(pattern) {
				return "", sentinel.InvalidFormat("pattern", "unterminated quote in %q", pattern)
			}
			b.WriteString(pattern[i+1 : end])
			i = end + 1
			continue
		}

		if !isLetter(c) {
			_, size := utf8.DecodeRuneInString(pattern[i:])
			b.WriteString(pattern[i : i+size])
			i += size
			continue
		}

		n := 1
		for i+n < len(pattern) && pattern[i+n] == c {
			n++
		}
		field, err := formatField(c, n, sys, dt, sym)
		if err != nil {
			return "", err
		}
		b.WriteString(field)
		i += n
	}
	return b.String(), nil
}

func formatField(c byte, n int, sys System, dt civil.DateTime, sym Symbols) (string, error) {
	d, t := dt.Date, dt.Time
	switch c {
	case 'y':
		if n == 2 {
			return sym.number(floorMod(d.Year, 100), 2), nil
		}
		return sym.number(d.Year, n), nil
	case 'M':
		switch {
		case n >= 4:
			return name(sym.Months, d.Month-1), nil
		case n == 3:
			return short(sym.ShortMonths, sym.Months, d.Month-1), nil
		default:
			return sym.number(d.Month, n), nil
		}
	case 'd':
		return sym.number(d.Day, n), nil
	case 'E':
		wd := int(Weekday(sys, d))
		if n >= 4 {
			return name(sym.Weekdays, wd), nil
		}
		return short(sym.ShortWeekdays, sym.Weekdays, wd), nil
	case 'H':
		return sym.number(t.Hour, n), nil
	case 'h':
		h := t.Hour % 12
		if h == 0 {
			h = 12
		}
		return sym.number(h, n), nil
	case 'm':
		return sym.number(t.Minute, n), nil
	case 's':
		return sym.number(t.Second, n), nil
	case 'a':
		if t.Hour < 12 {
			return sym.AM, nil
		}
		return sym.PM, nil
	case 'G':
		return sym.Era, nil
	default:
		return "", sentinel.InvalidFormat("pattern", "unsupported field %q", strings.Repeat(string(c), n))
	}
}

// number renders v zero-padded to width, then substitutes locale digits.
func (s Symbols) number(v, width int) string {
	neg := v < 0
	if neg {
		v = -v
	}
	str := strconv.Itoa(v)
	if len(str) < width {
		str = strings.Repeat("0", width-len(str)) + str
	}
	if neg {
		str = "-" + str
	}
	if len(s.Digits) != 10 {
		return str
	}
	var b strings.Builder
	for _, r := range str {
		if r >= '0' && r <= '9' {
			b.WriteRune(s.Digits[r-'0'])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func name(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return strconv.Itoa(i + 1)
	}
	return names[i]
}

func short(shorts, names []string, i int) string {
	if i >= 0 && i < len(shorts) {
		return shorts[i]
	}
	full := name(names, i)
	if utf8.RuneCountInString(full) <= 3 {
		return full
	}
	return string([]rune(full)[:3])
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
