package state

// Panel is an ordered list of tabs with an optional active tab.
type Panel struct {
	active int // -1 when there is no active tab
	tabs   []PanelTab
}

// NewPanel returns an empty panel.
func NewPanel() Panel {
	return Panel{active: -1}
}

// ActiveTab returns the index of the active tab. ok is false when the
// panel has no tabs.
func (p *Panel) ActiveTab() (int, bool) {
	return p.active, p.active >= 0
}

// Tabs returns the panel's tabs. The slice must not be modified.
func (p *Panel) Tabs() []PanelTab { return p.tabs }

// Len returns the number of tabs.
func (p *Panel) Len() int { return len(p.tabs) }

// Tab returns the tab at i. Panics if i is out of range.
func (p *Panel) Tab(i int) PanelTab {
	checkIndex("tab", i, len(p.tabs))
	return p.tabs[i]
}

// SetActiveTab activates tab i. Panics if i is out of range.
func (p *Panel) SetActiveTab(i int) {
	checkIndex("tab", i, len(p.tabs))
	p.active = i
}

func (p *Panel) indexOf(key string) int {
	for i, t := range p.tabs {
		if t.Key() == key {
			return i
		}
	}
	return -1
}

// closeTab removes tab i and re-selects: the following tab if one exists,
// else the preceding tab, else none.
func (p *Panel) closeTab(i int) {
	checkIndex("tab", i, len(p.tabs))

	switch {
	case p.active < 0:
	case p.active == i:
		switch {
		case i+1 < len(p.tabs):
			// the following tab shifts into index i
		case i > 0:
			p.active = i - 1
		default:
			p.active = -1
		}
	case p.active > i:
		p.active--
	}

	p.tabs = append(p.tabs[:i:i], p.tabs[i+1:]...)
}

func (p Panel) clone() Panel {
	tabs := make([]PanelTab, len(p.tabs))
	for i, t := range p.tabs {
		tabs[i] = t.clone()
	}
	p.tabs = tabs
	return p
}
