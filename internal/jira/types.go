package jira

// SearchResult represents the top-level structure from the Jira search API.
type SearchResult struct {
	Issues []Issue `json:"issues"`
}

// Issue represents a single issue in the search result.
type Issue struct {
	Key    string `json:"key"`
	Fields Fields `json:"fields"`
}

// Fields represents the inner fields of a Jira issue.
type Fields struct {
	Summary  string  `json:"summary"`
	Status   Status  `json:"status"`
	Parent   *Parent `json:"parent"`   // nullable
	Assignee *User   `json:"assignee"` // nullable
	Created  string  `json:"created,omitempty"`
	Updated  string  `json:"updated,omitempty"`
}

// Parent is the parent (epic or story) of an issue.
type Parent struct {
	Key    string       `json:"key"`
	Fields ParentFields `json:"fields"`
}

// ParentFields holds the subset of parent fields Jira embeds in child issues.
type ParentFields struct {
	Summary string `json:"summary"`
}

// Status represents a workflow status. Search results only carry the name;
// the project status endpoint fills the rest.
type Status struct {
	ID             string          `json:"id,omitempty"`
	Name           string          `json:"name"`
	StatusCategory *StatusCategory `json:"statusCategory,omitempty"`
}

// StatusCategory groups statuses (To Do, In Progress, Done).
type StatusCategory struct {
	ID        int    `json:"id"`
	Key       string `json:"key"`
	ColorName string `json:"colorName"`
	Name      string `json:"name"`
}

// User represents the assignee of an issue.
type User struct {
	DisplayName string            `json:"displayName"`
	AvatarURLs  map[string]string `json:"avatarUrls"`
}

// AvatarURL returns the largest avatar Jira advertises, or "".
func (u *User) AvatarURL() string {
	if u == nil {
		return ""
	}
	for _, size := range []string{"48x48", "32x32", "24x24", "16x16"} {
		if v := u.AvatarURLs[size]; v != "" {
			return v
		}
	}
	return ""
}

// issueTypeStatuses is one element of the project status endpoint response.
type issueTypeStatuses struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Statuses []Status `json:"statuses"`
}
