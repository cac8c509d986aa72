package mapview

// ZoneInfo is the detail panel for the active zone.
type ZoneInfo struct {
	Name      string
	Type      string
	Resources string
	Markers   string
}

// ActiveZone returns details of the selected zone. It reports false when
// nothing is selected or the selected zone is no longer drawn.
func (v *View) ActiveZone() (ZoneInfo, bool) {
	active := v.selection.Active()
	if active == "" {
		return ZoneInfo{}, false
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed || !v.store.Has(active) {
		return ZoneInfo{}, false
	}
	rec, _ := v.store.Get(active)
	if !rec.Attached {
		return ZoneInfo{}, false
	}
	zone, ok := v.latest.ZoneByName(active)
	if !ok {
		return ZoneInfo{}, false
	}
	return ZoneInfo{
		Name:      zone.Name,
		Type:      zone.Type,
		Resources: zone.ResourceSummary(),
		Markers:   zone.MarkerSummary(),
	}, true
}
