package dashboard

func applyOrderOverride(widgets []Widget, order []string) []Widget {
	if len(order) == 0 {
		return widgets
	}
	index := make(map[string]Widget, len(widgets))
	for _, w := range widgets {
		index[w.ID] = w
	}
	result := make([]Widget, 0, len(widgets))
	seen := make(map[string]struct{}, len(order))
	for _, id := range order {
		if _, dup := seen[id]; dup {
			continue
		}
		if w, ok := index[id]; ok {
			result = append(result, w)
			seen[id] = struct{}{}
		}
	}
	for _, w := range widgets {
		if _, ok := seen[w.ID]; !ok {
			result = append(result, w)
		}
	}
	return result
}

func applyHiddenFilter(widgets []Widget, hidden map[string]bool) []Widget {
	if len(hidden) == 0 {
		return widgets
	}
	result := make([]Widget, 0, len(widgets))
	for _, w := range widgets {
		if !hidden[w.ID] {
			result = append(result, w)
		}
	}
	return result
}

// reorderLayout rewrites layout row positions to follow the widget order while
// keeping each item's size. Items flow left to right across the grid.
func reorderLayout(layout []LayoutItem, order []string) []LayoutItem {
	if len(order) == 0 {
		return layout
	}
	byID := make(map[string]LayoutItem, len(layout))
	for _, item := range layout {
		byID[item.I] = item
	}
	out := make([]LayoutItem, 0, len(layout))
	x, y, rowHeight := 0, 0, 0
	place := func(item LayoutItem) {
		if x+item.W > GridColumns {
			x = 0
			y += rowHeight
			rowHeight = 0
		}
		item.X, item.Y = x, y
		x += item.W
		if item.H > rowHeight {
			rowHeight = item.H
		}
		out = append(out, item)
	}
	placed := make(map[string]struct{}, len(layout))
	for _, id := range order {
		item, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := placed[id]; dup {
			continue
		}
		placed[id] = struct{}{}
		place(item)
	}
	for _, item := range layout {
		if _, ok := placed[item.I]; !ok {
			place(item)
		}
	}
	return out
}
