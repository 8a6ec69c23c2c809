package models

import "time"

// ProjectStatus is one entry of a project's customizable workflow.
// Within a project's list, Order values are the positional indices
// 0..n-1 and exactly one entry has IsDefault set.
type ProjectStatus struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Color       string    `json:"color"`
	Description string    `json:"description,omitempty"`
	Order       int       `json:"order"`
	IsDefault   bool      `json:"isDefault,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TemplateStatus is a status definition inside a template: the
// ProjectStatus shape without id and creation timestamp, which are
// stamped when the template is instantiated.
type TemplateStatus struct {
	Label       string `json:"label" yaml:"label"`
	Color       string `json:"color" yaml:"color"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	IsDefault   bool   `json:"isDefault,omitempty" yaml:"isDefault,omitempty"`
}

// StatusTemplate is an immutable, named seed list of statuses used to
// initialize a new project's workflow.
type StatusTemplate struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description" yaml:"description"`
	Statuses    []TemplateStatus `json:"statuses" yaml:"statuses"`
}

// StatusColors is the fixed named palette for status badges. The value
// is the CSS class the dashboard renders the badge with.
var StatusColors = map[string]string{
	"gray":   "bg-gray-500",
	"red":    "bg-red-500",
	"orange": "bg-orange-500",
	"yellow": "bg-yellow-500",
	"green":  "bg-green-500",
	"teal":   "bg-teal-500",
	"blue":   "bg-blue-500",
	"indigo": "bg-indigo-500",
	"purple": "bg-purple-500",
	"pink":   "bg-pink-500",
}

// IsValidColor reports whether key is one of the palette keys.
func IsValidColor(key string) bool {
	_, ok := StatusColors[key]
	return ok
}

// ColorClass returns the CSS class for a palette key, falling back to
// the neutral gray for unrecognized keys.
func ColorClass(key string) string {
	if class, ok := StatusColors[key]; ok {
		return class
	}
	return "bg-gray-500"
}

// DefaultStatus returns the entry flagged as default, falling back to
// the first entry. Returns nil for an empty list.
func DefaultStatus(statuses []ProjectStatus) *ProjectStatus {
	for i := range statuses {
		if statuses[i].IsDefault {
			return &statuses[i]
		}
	}
	if len(statuses) > 0 {
		return &statuses[0]
	}
	return nil
}

// StatusByID returns the entry with the given id, or nil.
func StatusByID(statuses []ProjectStatus, id string) *ProjectStatus {
	for i := range statuses {
		if statuses[i].ID == id {
			return &statuses[i]
		}
	}
	return nil
}
