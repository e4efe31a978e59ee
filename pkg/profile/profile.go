// Package profile loads calendar profiles: the per-calendar bundle of format
// patterns and locale symbols that the converter renders with.
//
// A profile is a YAML file named calendar_<id>.yaml at the root of an fs.FS.
// The registry is read-only once loaded and safe for concurrent use.
package profile

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/codeGROOVE-dev/calTZ/pkg/calendar"
	"github.com/codeGROOVE-dev/calTZ/pkg/civil"
	"github.com/codeGROOVE-dev/calTZ/pkg/sentinel"
)

//go:embed profiles/*.yaml
var embedded embed.FS

const filePrefix = "calendar_"

// Formats holds the four patterns every profile must define. The "1" patterns
// are machine-readable; the "2" patterns are meant for people.
type Formats struct {
	Date1     string `yaml:"date1"`
	Date2     string `yaml:"date2"`
	DateTime1 string `yaml:"date_time1"`
	DateTime2 string `yaml:"date_time2"`
}

// LocaleSymbols is the YAML form of calendar.Symbols.
type LocaleSymbols struct {
	Months        []string `yaml:"months"`
	ShortMonths   []string `yaml:"short_months"`
	Weekdays      []string `yaml:"weekdays"`
	ShortWeekdays []string `yaml:"short_weekdays"`
	Era           string   `yaml:"era"`
	AM            string   `yaml:"am"`
	PM            string   `yaml:"pm"`
	Digits        string   `yaml:"digits"`
}

// Profile is one resolved calendar profile.
type Profile struct {
	ID            string                   `yaml:"id"`
	Calendar      string                   `yaml:"calendar"`
	DefaultLocale string                   `yaml:"default_locale"`
	Formats       Formats                  `yaml:"formats"`
	Locales       map[string]LocaleSymbols `yaml:"locales"`

	system   calendar.System
	symbols  map[string]calendar.Symbols // keyed by canonical BCP-47 tag
	fallback calendar.Symbols
}

// System returns the calendar arithmetic backing the profile.
func (p *Profile) System() calendar.System {
	return p.system
}

// Symbols returns the rendering symbols for locale. An exact tag match wins,
// then the tag's base language, then the profile's default locale. An empty
// locale selects the default; a malformed one is an InvalidArgument.
func (p *Profile) Symbols(locale string) (calendar.Symbols, error) {
	if locale == "" {
		return p.fallback, nil
	}
	tag, err := ParseLocale(locale)
	if err != nil {
		return calendar.Symbols{}, err
	}
	if s, ok := p.lookup(tag); ok {
		return s, nil
	}
	return p.fallback, nil
}

func (p *Profile) lookup(tag language.Tag) (calendar.Symbols, bool) {
	if s, ok := p.symbols[tag.String()]; ok {
		return s, true
	}
	base, _ := tag.Base()
	s, ok := p.symbols[base.String()]
	return s, ok
}

// ParseLocale parses a BCP-47 tag; POSIX-style underscores are accepted.
func ParseLocale(locale string) (language.Tag, error) {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return language.Und, sentinel.InvalidArgument("locale", "%q is not a valid language tag", locale)
	}
	return tag, nil
}

// Registry maps calendar ids to profiles.
type Registry struct {
	profiles map[string]*Profile
}

var defaultRegistry = sync.OnceValues(func() (*Registry, error) {
	sub, err := fs.Sub(embedded, "profiles")
	if err != nil {
		return nil, err
	}
	return Load(sub)
})

// Default returns the registry built from the embedded gregorian and
// khorshidi profiles.
func Default() (*Registry, error) {
	return defaultRegistry()
}

// LoadDir loads every profile in dir.
func LoadDir(dir string) (*Registry, error) {
	return Load(os.DirFS(dir))
}

// Load reads every calendar_<id>.yaml (or .yml) file at the root of fsys.
func Load(fsys fs.FS) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading profile directory: %w", err)
	}

	r := &Registry{profiles: make(map[string]*Profile)}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := profileID(e.Name())
		if !ok {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		p, err := parse(id, data)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", e.Name(), err)
		}
		if _, dup := r.profiles[p.ID]; dup {
			return nil, fmt.Errorf("loading %s: duplicate profile id %q", e.Name(), p.ID)
		}
		r.profiles[p.ID] = p
	}
	if len(r.profiles) == 0 {
		return nil, errors.New("no calendar profiles found")
	}
	return r, nil
}

// Resolve returns the profile registered under id.
func (r *Registry) Resolve(id string) (*Profile, error) {
	if id == "" {
		return nil, sentinel.InvalidArgument("calendar", "must not be empty")
	}
	p, ok := r.profiles[id]
	if !ok {
		return nil, sentinel.InvalidArgument("calendar", "unknown calendar %q", id)
	}
	return p, nil
}

// IDs returns the registered calendar ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func profileID(name string) (string, bool) {
	ext := path.Ext(name)
	if ext != ".yaml" && ext != ".yml" {
		return "", false
	}
	base := strings.TrimSuffix(name, ext)
	if !strings.HasPrefix(base, filePrefix) || len(base) == len(filePrefix) {
		return "", false
	}
	return strings.TrimPrefix(base, filePrefix), true
}

func parse(id string, data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	if p.ID == "" {
		p.ID = id
	}

	sys, ok := calendar.Lookup(p.Calendar)
	if !ok {
		return nil, fmt.Errorf("unknown calendar kind %q (want one of %s)", p.Calendar, strings.Join(calendar.Kinds(), ", "))
	}
	p.system = sys

	f := p.Formats
	patterns := map[string]string{
		"date1": f.Date1, "date2": f.Date2, "date_time1": f.DateTime1, "date_time2": f.DateTime2,
	}
	for name, pattern := range patterns {
		if pattern == "" {
			return nil, fmt.Errorf("missing format %s", name)
		}
	}

	if len(p.Locales) == 0 {
		return nil, errors.New("no locales defined")
	}
	p.symbols = make(map[string]calendar.Symbols, len(p.Locales))
	for key, ls := range p.Locales {
		tag, err := ParseLocale(key)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", key, err)
		}
		sym, err := ls.symbols(sys.MonthsInYear())
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", key, err)
		}
		p.symbols[tag.String()] = sym
	}

	// Render every pattern once so a bad profile fails here, not per request.
	sample := civil.Date{Year: 1400, Month: 1, Day: 1}.At(civil.Time{Hour: 13, Minute: 5, Second: 9})
	for locale, sym := range p.symbols {
		for name, pattern := range patterns {
			if _, err := calendar.Format(pattern, sys, sample, sym); err != nil {
				return nil, fmt.Errorf("format %s for locale %s: %w", name, locale, err)
			}
		}
	}

	def, err := ParseLocale(p.DefaultLocale)
	if err != nil {
		return nil, fmt.Errorf("default_locale: %w", err)
	}
	fallback, ok := p.lookup(def)
	if !ok {
		return nil, fmt.Errorf("default_locale %q has no symbols", p.DefaultLocale)
	}
	p.fallback = fallback
	return &p, nil
}

func (ls LocaleSymbols) symbols(months int) (calendar.Symbols, error) {
	if len(ls.Months) != months {
		return calendar.Symbols{}, fmt.Errorf("months: got %d names, want %d", len(ls.Months), months)
	}
	if ls.ShortMonths != nil && len(ls.ShortMonths) != months {
		return calendar.Symbols{}, fmt.Errorf("short_months: got %d names, want %d", len(ls.ShortMonths), months)
	}
	if len(ls.Weekdays) != 7 {
		return calendar.Symbols{}, fmt.Errorf("weekdays: got %d names, want 7", len(ls.Weekdays))
	}
	if ls.ShortWeekdays != nil && len(ls.ShortWeekdays) != 7 {
		return calendar.Symbols{}, fmt.Errorf("short_weekdays: got %d names, want 7", len(ls.ShortWeekdays))
	}
	var digits []rune
	if ls.Digits != "" {
		if utf8.RuneCountInString(ls.Digits) != 10 {
			return calendar.Symbols{}, fmt.Errorf("digits: want exactly 10 characters, got %q", ls.Digits)
		}
		digits = []rune(ls.Digits)
	}
	return calendar.Symbols{
		Months:        ls.Months,
		ShortMonths:   ls.ShortMonths,
		Weekdays:      ls.Weekdays,
		ShortWeekdays: ls.ShortWeekdays,
		Era:           ls.Era,
		AM:            ls.AM,
		PM:            ls.PM,
		Digits:        digits,
	}, nil
}
