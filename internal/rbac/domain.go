package rbac

import (
	"github.com/google/uuid"
)

// Permission is one entry of the seeded capability catalog.
type Permission struct {
	ID       uuid.UUID `json:"id"`
	Codename string    `json:"codename"`
	Name     string    `json:"name"`
	Domain   string    `json:"domain"`
}

// Capability names a permission by codename, optionally scoped to a domain.
type Capability struct {
	Domain   string
	Codename string
}

func (c Capability) String() string {
	if c.Domain == "" {
		return c.Codename
	}
	return c.Domain + "." + c.Codename
}

// Grants are the permissions a user holds without going through roles.
type Grants struct {
	IsActive    bool
	IsSuperuser bool
	Codenames   []string
}

// Has reports whether codename is among the direct grants.
func (g Grants) Has(codename string) bool {
	for _, c := range g.Codenames {
		if c == codename {
			return true
		}
	}
	return false
}
