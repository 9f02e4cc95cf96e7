package logger

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"buildlog/internal/event"
	"buildlog/internal/output"
	"buildlog/internal/resources"
)

func newCollator() *collate.Collator {
	return collate.New(language.Und, collate.IgnoreCase)
}

// sortedKeys returns the keys of m in case-insensitive order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	col := newCollator()
	sort.SliceStable(keys, func(i, j int) bool {
		if c := col.CompareString(keys[i], keys[j]); c != 0 {
			return c < 0
		}
		return keys[i] < keys[j]
	})
	return keys
}

func (l *Logger) writeProperties(ctx event.Context, ts time.Time, props map[string]string) {
	if len(props) == 0 {
		return
	}
	l.mw.WriteLinePrefixFor(&ctx, ts, false)
	l.out.SetColor(output.SummaryHeader)
	l.mw.WriteMessageAligned(resources.Format("PropertyListHeader"), true)
	l.out.SetColor(output.SummaryInfo)
	for _, name := range sortedKeys(props) {
		l.mw.WriteMessageAligned(name+" = "+props[name], false)
	}
	l.out.ResetColor()
	l.NotifyShown(nil)
}

// writeItems lists items grouped by type, types and specs in case-insensitive order.
func (l *Logger) writeItems(ctx event.Context, ts time.Time, items []event.Item) {
	if len(items) == 0 {
		return
	}
	byType := make(map[string][]event.Item)
	var types []string
	col := newCollator()
	for _, it := range items {
		key := string(col.KeyFromString(&collate.Buffer{}, it.Type))
		if _, ok := byType[key]; !ok {
			types = append(types, key)
		}
		byType[key] = append(byType[key], it)
	}
	sort.Strings(types)

	l.mw.WriteLinePrefixFor(&ctx, ts, false)
	l.out.SetColor(output.SummaryHeader)
	l.mw.WriteMessageAligned(resources.Format("ItemListHeader"), true)
	for _, key := range types {
		group := byType[key]
		typeName := group[0].Type
		sort.SliceStable(group, func(i, j int) bool {
			return col.CompareString(group[i].Spec, group[j].Spec) < 0
		})
		l.out.SetColor(output.Items)
		l.mw.WriteMessageAligned(typeName, false)
		for _, it := range group {
			l.out.SetColor(output.SummaryInfo)
			l.mw.WriteMessageAligned("    "+it.Spec, false)
			l.writeMetadata(it)
		}
	}
	l.out.ResetColor()
	l.NotifyShown(nil)
}

func (l *Logger) writeMetadata(it event.Item) {
	if len(it.Metadata) == 0 {
		return
	}
	l.out.SetColor(output.Details)
	for _, name := range sortedKeys(it.Metadata) {
		l.mw.WriteMessageAligned("        "+name+" = "+it.Metadata[name], false)
	}
	l.out.SetColor(output.SummaryInfo)
}
