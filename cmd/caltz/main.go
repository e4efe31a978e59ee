// Package main implements the caltz CLI for converting dates between calendars
// and timezones.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/fatih/color"

	"github.com/codeGROOVE-dev/calTZ/pkg/caltz"
	"github.com/codeGROOVE-dev/calTZ/pkg/civil"
	"github.com/codeGROOVE-dev/calTZ/pkg/client"
	"github.com/codeGROOVE-dev/calTZ/pkg/display"
	"github.com/codeGROOVE-dev/calTZ/pkg/httpcache"
	"github.com/codeGROOVE-dev/calTZ/pkg/profile"
	"github.com/codeGROOVE-dev/calTZ/pkg/sentinel"
)

var (
	fromCalendar = flag.String("from-calendar", "gregorian", "Source calendar id")
	fromLocale   = flag.String("from-locale", "", "Source locale, e.g. en-US (default: the calendar's own)")
	fromZone     = flag.String("from-zone", "UTC", "Source IANA timezone")
	toCalendar   = flag.String("to-calendar", "khorshidi", "Target calendar id")
	toLocale     = flag.String("to-locale", "", "Target locale, e.g. fa-IR (default: the calendar's own)")
	toZone       = flag.String("to-zone", "Asia/Tehran", "Target IANA timezone")
	profilesDir  = flag.String("profiles", "", "Directory of calendar_<id>.yaml profiles (or set CALTZ_PROFILES)")
	serverURL    = flag.String("server", "", "Use a caltz-server at this URL instead of the local engine (or set CALTZ_SERVER)")
	cacheDir     = flag.String("cache-dir", "", "Cache directory for server responses (or set CACHE_DIR)")
	noCache      = flag.Bool("no-cache", false, "Disable caching")
	noColor      = flag.Bool("no-color", false, "Disable colored output")
	jsonOutput   = flag.Bool("json", false, "Print results as JSON")
	verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	version      = flag.Bool("version", false, "Show version")
)

const usage = `Usage: %s [flags] <command> [args]

Commands:
  convert DATE|DATETIME   convert yyyy-MM-dd or yyyy-MM-ddTHH:mm[:ss] from the source to the target side
  offset ZONE_A ZONE_B    current offset of ZONE_B relative to ZONE_A
  seconds TEXT            parse [±]HH:mm[:ss] into seconds
  leap YEAR               is YEAR a leap year in the source calendar
  add DATE Y M D          add years, months and days to DATE in the source calendar
  now                     current date-time on the target side
  zones [REF]             offsets of every zone relative to REF (default: source zone)
  calendars               list calendar ids

Flags:
`

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, usage, filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		fmt.Println("calTZ CLI v1.0.0")
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	if *noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
	if *profilesDir == "" {
		*profilesDir = os.Getenv("CALTZ_PROFILES")
	}
	if *serverURL == "" {
		*serverURL = os.Getenv("CALTZ_SERVER")
	}
	if *cacheDir == "" {
		*cacheDir = os.Getenv("CACHE_DIR")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	be, closeFn, err := newBackend(ctx, logger)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		cancel()
		os.Exit(1) //nolint:gocritic // cancel called above
	}
	defer closeFn()

	if err := run(ctx, be, args, os.Stdout); err != nil {
		logger.Error("Command failed", "command", args[0], "error", err)
		if errors.Is(err, errUsage) {
			flag.Usage()
		}
		closeFn()
		cancel()
		os.Exit(1) //nolint:gocritic // cleanup done above
	}
}

func newBackend(ctx context.Context, logger *slog.Logger) (backend, func(), error) {
	if *serverURL == "" {
		var reg *profile.Registry
		var err error
		if *profilesDir != "" {
			reg, err = profile.LoadDir(*profilesDir)
		} else {
			reg, err = profile.Default()
		}
		if err != nil {
			return nil, nil, fmt.Errorf("loading calendar profiles: %w", err)
		}
		logger.Debug("using local engine", "calendars", reg.IDs())
		return local{conv: caltz.New(reg)}, func() {}, nil
	}

	opts := []client.Option{client.WithLogger(logger)}
	closeFn := func() {}
	if !*noCache {
		dir := *cacheDir
		if dir == "" {
			if base, err := os.UserCacheDir(); err == nil {
				dir = filepath.Join(base, "caltz")
			}
		}
		cache, err := httpcache.New(ctx, dir, 24*time.Hour, logger)
		if err != nil {
			logger.Warn("cache unavailable, continuing without it", "error", err)
		} else {
			opts = append(opts, client.WithCache(cache))
			closeFn = func() {
				if err := cache.Close(); err != nil {
					logger.Error("Failed to save cache", "error", err)
				}
			}
		}
	}
	c, err := client.New(*serverURL, opts...)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	logger.Debug("using remote engine", "server", *serverURL)
	return remote{c: c}, closeFn, nil
}

var errUsage = errors.New("bad usage")

func sides() (from, to caltz.Side) {
	return caltz.Side{Calendar: *fromCalendar, Locale: *fromLocale, Zone: *fromZone},
		caltz.Side{Calendar: *toCalendar, Locale: *toLocale, Zone: *toZone}
}

func run(ctx context.Context, be backend, args []string, w io.Writer) error {
	cmd, rest := args[0], args[1:]
	want := map[string]int{
		"convert": 1, "offset": 2, "seconds": 1, "leap": 1, "add": 4, "now": 0, "calendars": 0,
	}
	if n, ok := want[cmd]; ok && len(rest) != n {
		return fmt.Errorf("%w: %s takes %d argument(s), got %d", errUsage, cmd, n, len(rest))
	}

	from, to := sides()
	switch cmd {
	case "convert":
		return convert(ctx, be, rest[0], from, to, w)

	case "offset":
		off, err := be.offset(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		return emit(w, map[string]any{"from": rest[0], "to": rest[1], "offset": off.String(), "seconds": off.Seconds()},
			fmt.Sprintf("%s → %s: %s (%d seconds)\n", rest[0], rest[1], off, off.Seconds()))

	case "seconds":
		secs, err := be.seconds(ctx, rest[0])
		if err != nil {
			return err
		}
		return emit(w, map[string]any{"text": rest[0], "seconds": secs}, fmt.Sprintf("%d\n", secs))

	case "leap":
		year, err := strconv.Atoi(rest[0])
		if err != nil {
			return sentinel.InvalidArgument("year", "%q is not an integer", rest[0])
		}
		leap, err := be.leap(ctx, year, from.Calendar, from.Locale)
		if err != nil {
			return err
		}
		word := "not a leap year"
		if leap {
			word = "a leap year"
		}
		return emit(w, map[string]any{"calendar": from.Calendar, "year": year, "leap": leap},
			fmt.Sprintf("%d is %s in the %s calendar\n", year, word, from.Calendar))

	case "add":
		d, err := civil.ParseDate(rest[0])
		if err != nil {
			return err
		}
		n := make([]int, 3)
		for i, s := range rest[1:] {
			if n[i], err = strconv.Atoi(s); err != nil {
				return sentinel.InvalidArgument("amount", "%q is not an integer", s)
			}
		}
		got, err := be.add(ctx, d, from.Calendar, from.Locale, n[0], n[1], n[2])
		if err != nil {
			return err
		}
		return emit(w, map[string]any{"date": got}, got.String()+"\n")

	case "now":
		res, err := be.now(ctx, to.Calendar, to.Locale, to.Zone)
		if err != nil {
			return err
		}
		return emit(w, res, fmt.Sprintf("%s\n%s\n", res.Text, res.Formatted))

	case "zones":
		ref := from.Zone
		switch len(rest) {
		case 0:
		case 1:
			ref = rest[0]
		default:
			return fmt.Errorf("%w: zones takes at most 1 argument, got %d", errUsage, len(rest))
		}
		zones, err := be.zones(ctx, ref)
		if err != nil {
			return err
		}
		out := make(map[string]string, len(zones))
		for name, off := range zones {
			out[name] = off.String()
		}
		return emit(w, map[string]any{"ref": ref, "zones": out}, display.OffsetChart(ref, zones, 40))

	case "calendars":
		ids, err := be.calendars(ctx)
		if err != nil {
			return err
		}
		return emit(w, map[string]any{"calendars": ids}, strings.Join(ids, "\n")+"\n")

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func convert(ctx context.Context, be backend, text string, from, to caltz.Side, w io.Writer) error {
	if !strings.ContainsAny(text, "T ") {
		d, err := civil.ParseDate(text)
		if err != nil {
			return err
		}
		res, err := be.convertDate(ctx, d, from, to)
		if err != nil {
			return err
		}
		return emit(w, res, display.Date(d, from, to, res))
	}

	dt, err := civil.ParseDateTime(text)
	if err != nil {
		return err
	}
	res, err := be.convertDateTime(ctx, dt, from, to)
	if err != nil {
		return err
	}
	return emit(w, res, display.DateTime(dt, from, to, res))
}

// emit writes v as JSON when -json is set, otherwise text.
func emit(w io.Writer, v any, text string) error {
	if *jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := io.WriteString(w, text)
	return err
}
