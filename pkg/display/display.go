// Package display renders conversion results and zone offsets for terminals.
package display

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/codeGROOVE-dev/calTZ/pkg/caltz"
	"github.com/codeGROOVE-dev/calTZ/pkg/civil"
	"github.com/codeGROOVE-dev/calTZ/pkg/tzconvert"
)

var (
	headerColor = color.New(color.Bold)
	labelColor  = color.New(color.FgHiBlack)
	valueColor  = color.New(color.FgCyan)
	shiftColor  = color.New(color.FgYellow)
	refColor    = color.New(color.FgGreen, color.Bold)
	barColor    = color.New(color.FgHiBlack)
)

const ruleWidth = 50

func describe(s caltz.Side) string {
	if s.Locale == "" {
		return fmt.Sprintf("%s @ %s", s.Calendar, s.Zone)
	}
	return fmt.Sprintf("%s (%s) @ %s", s.Calendar, s.Locale, s.Zone)
}

// DateTime renders a date-time conversion.
func DateTime(in civil.DateTime, from, to caltz.Side, res caltz.DateTimeResult) string {
	var b strings.Builder
	b.WriteString(headerColor.Sprint("🗓  Date-time conversion") + "\n")
	b.WriteString(strings.Repeat("─", ruleWidth) + "\n")
	fmt.Fprintf(&b, "%s %s  %s\n", labelColor.Sprint("from"), in, labelColor.Sprint(describe(from)))
	fmt.Fprintf(&b, "%s   %s  %s\n", labelColor.Sprint("to"), valueColor.Sprint(res.Text), labelColor.Sprint(describe(to)))
	fmt.Fprintf(&b, "     %s\n", res.Formatted)
	if res.Shift != 0 {
		fmt.Fprintf(&b, "%s crossed midnight (%+d day), source date becomes %s\n",
			shiftColor.Sprint("↺"), int(res.Shift), res.Source)
	}
	return b.String()
}

// Date renders a date-only conversion.
func Date(in civil.Date, from, to caltz.Side, res caltz.DateResult) string {
	var b strings.Builder
	b.WriteString(headerColor.Sprint("🗓  Date conversion") + "\n")
	b.WriteString(strings.Repeat("─", ruleWidth) + "\n")
	fmt.Fprintf(&b, "%s %s  %s\n", labelColor.Sprint("from"), in, labelColor.Sprint(from.Calendar))
	fmt.Fprintf(&b, "%s   %s  %s\n", labelColor.Sprint("to"), valueColor.Sprint(res.Text), labelColor.Sprint(to.Calendar))
	fmt.Fprintf(&b, "     %s\n", res.Formatted)
	return b.String()
}

type offsetGroup struct {
	offset tzconvert.Offset
	zones  []string
}

// OffsetChart draws one bar per distinct offset from ref, one block per
// zone, scaled down so the widest bar fits width cells. The ref offset is
// highlighted.
// Example row: "+05:30   (  2) ██ Asia/Colombo, Asia/Kolkata".
func OffsetChart(ref string, zones map[string]tzconvert.Offset, width int) string {
	var b strings.Builder
	b.WriteString(headerColor.Sprintf("🌐 Zones relative to %s", ref) + "\n")
	b.WriteString(strings.Repeat("─", ruleWidth) + "\n")
	if len(zones) == 0 {
		return b.String() + "No zones available\n"
	}

	byOffset := make(map[tzconvert.Offset][]string)
	for name, off := range zones {
		byOffset[off] = append(byOffset[off], name)
	}
	groups := make([]offsetGroup, 0, len(byOffset))
	widest := 0
	for off, names := range byOffset {
		sort.Strings(names)
		groups = append(groups, offsetGroup{offset: off, zones: names})
		widest = max(widest, len(names))
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].offset < groups[j].offset })

	if width <= 0 {
		width = 40
	}
	for _, g := range groups {
		n := len(g.zones)
		bar := n
		if widest > width {
			bar = max(1, n*width/widest)
		}

		marker := " "
		label := fmt.Sprintf("%6s", g.offset.Signed())
		if g.offset == 0 {
			marker = refColor.Sprint("*")
			label = refColor.Sprint(label)
		}
		line := fmt.Sprintf("%s %s (%3d) ", label, marker, n)
		if bar == 1 {
			line += barColor.Sprint("·")
		} else {
			line += barColor.Sprint(strings.Repeat("█", bar))
		}
		line += " " + sample(g.zones, 3)
		b.WriteString(line + "\n")
	}
	return b.String()
}

func sample(names []string, n int) string {
	if len(names) <= n {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s, +%d more", strings.Join(names[:n], ", "), len(names)-n)
}
