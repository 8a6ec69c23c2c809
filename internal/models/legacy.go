package models

// LegacyStatus is the fixed project status enum used before
// customizable workflows. Documents written by old clients carry it in
// the "status" field; the read path migrates it into a single-entry
// custom status list.
type LegacyStatus string

const (
	LegacyOnline     LegacyStatus = "online"
	LegacyOffline    LegacyStatus = "offline"
	LegacyInProgress LegacyStatus = "in-progress"
	LegacyCrashed    LegacyStatus = "crashed"
)

// LegacyStatusMapping carries the label and palette color a legacy
// value migrates to.
type LegacyStatusMapping struct {
	Label string
	Color string
}

var legacyStatusConfig = map[LegacyStatus]LegacyStatusMapping{
	LegacyInProgress: {Label: "In Progress", Color: "yellow"},
	LegacyOnline:     {Label: "Online", Color: "green"},
	LegacyOffline:    {Label: "Offline", Color: "gray"},
	LegacyCrashed:    {Label: "Crashed", Color: "red"},
}

// Mapping returns the label/color a legacy value migrates to. Unknown
// values map to a gray status labeled with the raw value so a corrupt
// document still migrates instead of failing every read.
func (s LegacyStatus) Mapping() LegacyStatusMapping {
	if m, ok := legacyStatusConfig[s]; ok {
		return m
	}
	return LegacyStatusMapping{Label: string(s), Color: "gray"}
}

// IsValid reports whether s is one of the known legacy values.
func (s LegacyStatus) IsValid() bool {
	_, ok := legacyStatusConfig[s]
	return ok
}
