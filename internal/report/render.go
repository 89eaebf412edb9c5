// Package report renders a finished scan run for humans (aligned text
// tables) or machines (JSON).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/keyscope/internal/ranker"
	"github.com/dbsmedya/keyscope/internal/scanner"
	"github.com/dbsmedya/keyscope/internal/store"
)

// Options control text rendering.
type Options struct {
	// MaxKeyWidth truncates long keys to keep rows on one line.
	MaxKeyWidth int
	// Color enables ANSI styling of headers and warnings.
	Color bool
}

const sectionWidth = 100

// typeTitles are the section headings, in ranking display order.
var typeTitles = map[store.KeyType]string{
	store.TypeString: "Strings",
	store.TypeList:   "Lists",
	store.TypeSet:    "Sets",
	store.TypeZSet:   "Sorted Sets",
	store.TypeHash:   "Hashes",
	store.TypeStream: "Streams",
}

// RenderText writes the human-readable report: the overall Top-N, one
// section per key type with that type's Top-N and share, per-node scan
// statistics, and a summary table across types.
func RenderText(w io.Writer, rep *scanner.Report, opts Options) error {
	if opts.MaxKeyWidth <= 0 {
		opts.MaxKeyWidth = 80
	}
	r := &textRenderer{w: w, rep: rep, opts: opts}

	if !rep.Complete {
		r.line(r.paint(color.FgYellow, "WARNING: scan incomplete, results cover only part of the keyspace"))
	}
	r.linef("Scanned %s keys in %s (errors: %s, skipped: %s)",
		formatCommas(rep.TotalScanned()),
		rep.Elapsed.Round(10*time.Millisecond),
		formatCommas(rep.TotalErrors()),
		formatCommas(rep.TotalSkipped()),
	)
	r.line(strings.Repeat("=", sectionWidth))

	r.renderOverall()
	for _, kind := range store.RankedTypes() {
		r.renderTypeSection(kind)
	}
	r.renderPrefixSections()
	r.renderNodes()
	r.renderSummary()

	return r.err
}

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, rep *scanner.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

type textRenderer struct {
	w    io.Writer
	rep  *scanner.Report
	opts Options
	err  error
}

func (r *textRenderer) renderOverall() {
	if len(r.rep.Top) == 0 {
		return
	}

	r.line("")
	r.line(r.paint(color.Bold, fmt.Sprintf("Largest Keys - Top %d", r.rep.TopN)))
	r.line(strings.Repeat("-", sectionWidth))
	r.linef("%6s %15s %20s %-8s %-21s Key", "Rank", "Size (MB)", "Size (Bytes)", "Type", "Node")
	r.line(strings.Repeat("-", sectionWidth))
	for _, e := range r.rep.Top {
		r.linef("%6d %15.3f %20s %-8s %-21s %s",
			e.Rank, megabytes(e.Size), formatCommas(e.Size), e.Type,
			truncateKey(e.Node, 21), r.truncate(e.Key))
	}
}

func (r *textRenderer) renderTypeSection(kind store.KeyType) {
	entries := r.category("type:" + string(kind))
	totals := r.rep.TypeTotals[kind]
	if totals.Count == 0 || len(entries) == 0 {
		return
	}

	r.line("")
	r.line(r.paint(color.Bold, fmt.Sprintf("%s - Top %d", typeTitles[kind], r.rep.TopN)))
	r.line(strings.Repeat("-", sectionWidth))
	r.linef("%6s %15s %20s %12s Key", "Rank", "Size (MB)", "Size (Bytes)", "Elements")
	r.line(strings.Repeat("-", sectionWidth))

	var topBytes int64
	for _, e := range entries {
		topBytes += e.Size
		r.linef("%6d %15.3f %20s %12s %s",
			e.Rank, megabytes(e.Size), formatCommas(e.Size),
			cardinalityCell(e), r.truncate(e.Key))
	}

	r.linef("\n  %s keys of this type, %.2f MB total",
		formatCommas(totals.Count), megabytes(totals.Bytes))
	r.linef("  Top %d share: %.2f%% (%.2f MB)",
		len(entries), percent(topBytes, totals.Bytes), megabytes(topBytes))
}

func (r *textRenderer) renderPrefixSections() {
	var names []string
	for _, c := range r.rep.Categories {
		if strings.HasPrefix(c.Name, "prefix:") && len(c.Entries) > 0 {
			names = append(names, c.Name)
		}
	}
	if len(names) == 0 {
		return
	}

	r.line("")
	r.line(r.paint(color.Bold, fmt.Sprintf("Largest Keys by Prefix - Top %d", r.rep.TopN)))
	r.line(strings.Repeat("-", sectionWidth))
	for _, name := range names {
		entries := r.category(name)
		r.linef("%s:", strings.TrimPrefix(name, "prefix:"))
		for _, e := range entries {
			r.linef("%6d %15.3f %20s %s",
				e.Rank, megabytes(e.Size), formatCommas(e.Size), r.truncate(e.Key))
		}
	}
}

func (r *textRenderer) renderNodes() {
	if len(r.rep.Nodes) == 0 {
		return
	}

	r.line("")
	r.line(r.paint(color.Bold, "Nodes"))
	r.line(strings.Repeat("-", sectionWidth))
	r.linef("%-21s %-8s %-18s %-9s %12s %12s %8s",
		"Address", "Role", "Shard", "State", "Scanned", "Skipped", "Errors")
	r.line(strings.Repeat("-", sectionWidth))
	for _, addr := range sortedNodeAddrs(r.rep.Nodes) {
		stats := r.rep.Nodes[addr]
		state := string(stats.State)
		if stats.State != scanner.StateDone {
			state = r.paint(color.FgYellow, state)
		}
		r.linef("%-21s %-8s %-18s %-9s %12s %12s %8s",
			truncateKey(addr, 21), stats.Role, stats.ShardID, state,
			formatCommas(stats.Scanned), formatCommas(stats.Skipped),
			formatCommas(stats.Errors))
	}
}

func (r *textRenderer) renderSummary() {
	r.line("")
	r.line(strings.Repeat("=", sectionWidth))
	r.line(r.paint(color.Bold, "Summary"))
	r.line(strings.Repeat("=", sectionWidth))
	r.linef("%-12s %15s %20s %8s", "Type", "Keys", "Size (MB)", "Share")
	r.line(strings.Repeat("-", sectionWidth))

	totalBytes := r.rep.TotalBytes()
	for _, kind := range store.RankedTypes() {
		totals := r.rep.TypeTotals[kind]
		if totals.Count == 0 {
			continue
		}
		r.linef("%-12s %15s %20.2f %7.2f%%",
			kind, formatCommas(totals.Count), megabytes(totals.Bytes),
			percent(totals.Bytes, totalBytes))
	}

	r.linef("\nTotal: %s keys, %.2f MB",
		formatCommas(r.rep.TotalScanned()), megabytes(totalBytes))
}

func (r *textRenderer) category(name string) []ranker.Entry {
	for _, c := range r.rep.Categories {
		if c.Name == name {
			return c.Entries
		}
	}
	return nil
}

func (r *textRenderer) paint(c color.Color, s string) string {
	if !r.opts.Color {
		return s
	}
	return c.Render(s)
}

func (r *textRenderer) truncate(key string) string {
	return truncateKey(key, r.opts.MaxKeyWidth)
}

func (r *textRenderer) line(s string) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintln(r.w, s)
}

func (r *textRenderer) linef(format string, args ...interface{}) {
	r.line(fmt.Sprintf(format, args...))
}

func cardinalityCell(e ranker.Entry) string {
	if e.Cardinality == 0 {
		return "-"
	}
	return formatCommas(e.Cardinality)
}

func megabytes(b int64) float64 {
	return float64(b) / 1024.0 / 1024.0
}

func percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100.0
}

// formatCommas inserts thousands separators: 1234567 -> "1,234,567".
func formatCommas(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// truncateKey shortens display-wide keys, rune-width aware so CJK key
// names do not break column alignment.
func truncateKey(s string, max int) string {
	if runewidth.StringWidth(s) <= max {
		return s
	}
	return runewidth.Truncate(s, max, "...")
}

func sortedNodeAddrs(nodes map[string]scanner.NodeStats) []string {
	addrs := make([]string, 0, len(nodes))
	for addr := range nodes {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}
