package directory

import "time"

// EntityType identifies the kind of directory entity behind an index document
type EntityType string

const (
	EntityDepartment EntityType = "department"
	EntityPerson     EntityType = "person"
)

// Organization is the tenant boundary. Every department and person belongs to
// exactly one organization and is never visible outside of it.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Member links a user account to an organization
type Member struct {
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	Role           string    `json:"role"`
	JoinedAt       time.Time `json:"joined_at"`
}

// Department is an organizational unit, optionally nested under a parent
type Department struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	ParentID       string    `json:"parent_id,omitempty"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Person is a directory entry for an individual within an organization
type Person struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	DepartmentID   string    `json:"department_id,omitempty"`
	Name           string    `json:"name"`
	Title          string    `json:"title,omitempty"`
	Email          string    `json:"email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// User is a global account. Only discoverable users ever appear in the
// cross-organization directory search.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	IsDiscoverable bool      `json:"is_discoverable"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserSummary is the shape returned by the user directory search
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Document is a department or person projected into the search index
type Document struct {
	ID             int64      `json:"id"`
	OrganizationID string     `json:"organization_id"`
	EntityType     EntityType `json:"entity_type"`
	EntityID       string     `json:"entity_id"`
	Name           string     `json:"name"`
	Body           string     `json:"body"`
}
