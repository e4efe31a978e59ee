package tzconvert

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/codeGROOVE-dev/calTZ/pkg/sentinel"
)

// zoneRoots are the usual zoneinfo locations; $ZONEINFO is tried first.
var zoneRoots = []string{
	"/usr/share/zoneinfo/",
	"/usr/share/lib/zoneinfo/",
	"/usr/lib/locale/TZ/",
	"/etc/zoneinfo/",
}

// fallbackZones is used when no zoneinfo directory can be walked, e.g. when
// only the embedded time/tzdata database is available.
var fallbackZones = []string{
	"Africa/Cairo", "Africa/Johannesburg", "Africa/Lagos", "Africa/Nairobi",
	"America/Anchorage", "America/Argentina/Buenos_Aires", "America/Bogota", "America/Chicago",
	"America/Denver", "America/Halifax", "America/Los_Angeles", "America/Mexico_City",
	"America/New_York", "America/Sao_Paulo", "America/St_Johns", "America/Toronto",
	"Asia/Bangkok", "Asia/Dhaka", "Asia/Dubai", "Asia/Hong_Kong", "Asia/Jakarta",
	"Asia/Jerusalem", "Asia/Kabul", "Asia/Karachi", "Asia/Kathmandu", "Asia/Kolkata",
	"Asia/Riyadh", "Asia/Seoul", "Asia/Shanghai", "Asia/Singapore", "Asia/Tehran", "Asia/Tokyo",
	"Atlantic/Azores", "Atlantic/Reykjavik", "Australia/Adelaide", "Australia/Brisbane",
	"Australia/Perth", "Australia/Sydney", "Europe/Berlin", "Europe/Istanbul", "Europe/London",
	"Europe/Madrid", "Europe/Moscow", "Europe/Paris", "Japan", "Pacific/Auckland",
	"Pacific/Chatham", "Pacific/Honolulu", "Pacific/Kiritimati", "Pacific/Pago_Pago", "UTC",
}

// Resolver turns IANA names into locations, caching what it loads.
// It is safe for concurrent use.
type Resolver struct {
	cache     *otter.Cache[string, *time.Location]
	roots     []string
	zonesOnce sync.Once
	zones     []string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithZoneRoots replaces the directories walked by AvailableZones.
func WithZoneRoots(dirs ...string) ResolverOption {
	return func(r *Resolver) {
		r.roots = dirs
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		cache: otter.Must(&otter.Options[string, *time.Location]{
			MaximumSize:      2048,
			InitialCapacity:  64,
			ExpiryCalculator: otter.ExpiryWriting[string, *time.Location](time.Hour),
		}),
		roots: zoneRoots,
	}
	if dir := os.Getenv("ZONEINFO"); dir != "" {
		r.roots = append([]string{dir}, r.roots...)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location resolves name against the host timezone database.
// The empty name is rejected rather than silently meaning UTC.
func (r *Resolver) Location(name string) (*time.Location, error) {
	if name == "" {
		return nil, sentinel.InvalidArgument("zone", "must not be empty")
	}
	if loc, ok := r.cache.GetIfPresent(name); ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, sentinel.InvalidArgument("zone", "unknown zone %q", name)
	}
	r.cache.Set(name, loc)
	return loc, nil
}

// Cached returns the number of locations currently held.
func (r *Resolver) Cached() int {
	return r.cache.EstimatedSize()
}

// AvailableZones lists the zone names found in the host zoneinfo directory,
// sorted. The walk happens once per Resolver.
func (r *Resolver) AvailableZones() []string {
	r.zonesOnce.Do(func() {
		for _, root := range r.roots {
			if zones := walkZones(root); len(zones) > 0 {
				r.zones = zones
				return
			}
		}
		r.zones = append([]string(nil), fallbackZones...)
		sort.Strings(r.zones)
	})
	return r.zones
}

// ZonesRelatedTo returns the offset of every available zone relative to ref
// at instant at. Zones that fail to load are left out.
func (r *Resolver) ZonesRelatedTo(ref *time.Location, at time.Time) map[string]Offset {
	zones := r.AvailableZones()
	out := make(map[string]Offset, len(zones))
	for _, name := range zones {
		loc, err := r.Location(name)
		if err != nil {
			continue
		}
		out[name] = Between(ref, loc, at)
	}
	return out
}

func walkZones(root string) []string {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil
	}
	var zones []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil //nolint:nilerr // root itself
		}
		rel = filepath.ToSlash(rel)
		if !isZoneName(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			zones = append(zones, rel)
		}
		return nil
	})
	if err != nil {
		return nil
	}
	sort.Strings(zones)
	return zones
}

// isZoneName filters out zoneinfo helpers such as posixrules, zone.tab or
// the right/ and posix/ trees: every path element of a zone starts with an
// upper-case letter and has no dot.
func isZoneName(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if part == "" || part[0] < 'A' || part[0] > 'Z' || strings.Contains(part, ".") {
			return false
		}
	}
	return true
}
