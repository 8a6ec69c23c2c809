package models

import (
	"encoding/json"
	"time"
)

// Project is the aggregate root: the project document and its embedded
// status workflow, treated as one consistency boundary. JSON tags match
// the persisted document field names.
type Project struct {
	ID               string          `json:"id"`
	UserID           string          `json:"userId"`
	Title            string          `json:"title"`
	ShortDescription string          `json:"shortDescription"`
	LongDescription  string          `json:"longDescription"`
	Role             string          `json:"role"`
	TechStack        []string        `json:"techStack"`
	Skills           []string        `json:"skills"`
	LiveURL          string          `json:"liveUrl,omitempty"`
	RepoURL          string          `json:"repoUrl,omitempty"`
	Tags             []string        `json:"tags"`
	CustomStatuses   []ProjectStatus `json:"customStatuses,omitempty"`
	CurrentStatus    string          `json:"currentStatus,omitempty"`
	LegacyStatus     LegacyStatus    `json:"status,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        *time.Time      `json:"updatedAt,omitempty"`
}

// Clone returns a deep copy. Cached projects are handed out as clones
// so observers cannot mutate the cache's state in place.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := *p
	out.TechStack = append([]string(nil), p.TechStack...)
	out.Skills = append([]string(nil), p.Skills...)
	out.Tags = append([]string(nil), p.Tags...)
	out.CustomStatuses = append([]ProjectStatus(nil), p.CustomStatuses...)
	return &out
}

// ProjectFromFields decodes a persisted document's fields into a
// Project. The document id is stored outside the field map and is
// injected by the caller.
func ProjectFromFields(id string, fields map[string]any) (*Project, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var p Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

// User is the acting identity resolved by the session provider.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
