package rbac

// Permission domains.
const (
	DomainEventManagement = "event_management"
	DomainSecurity        = "security"
)

// Action is a resource operation guarded by a capability.
type Action string

// Resource actions.
const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDestroy  Action = "destroy"
)

var actionVerbs = map[Action]string{
	ActionList:     "view",
	ActionRetrieve: "view",
	ActionCreate:   "add",
	ActionUpdate:   "change",
	ActionDestroy:  "delete",
}

// Verb returns the permission verb for a, or "" for unknown actions.
func (a Action) Verb() string {
	return actionVerbs[a]
}

// Resource identifies a guarded model within its domain.
type Resource struct {
	Domain string
	Name   string
}

// Guarded resources.
var (
	Category           = Resource{Domain: DomainEventManagement, Name: "category"}
	Speaker            = Resource{Domain: DomainEventManagement, Name: "speaker"}
	Event              = Resource{Domain: DomainEventManagement, Name: "event"}
	Attendee           = Resource{Domain: DomainEventManagement, Name: "attendee"}
	Reservation        = Resource{Domain: DomainEventManagement, Name: "reservation"}
	User               = Resource{Domain: DomainSecurity, Name: "user"}
	Role               = Resource{Domain: DomainSecurity, Name: "role"}
	UserRole           = Resource{Domain: DomainSecurity, Name: "userrole"}
	PermissionResource = Resource{Domain: DomainSecurity, Name: "permission"}
)

// Resources lists every guarded resource; the permission seed is derived from it.
var Resources = []Resource{Category, Speaker, Event, Attendee, Reservation, User, Role, UserRole, PermissionResource}

// Capability maps an action on r to its `<verb>_<resource>` codename.
func (r Resource) Capability(a Action) Capability {
	return Capability{Domain: r.Domain, Codename: a.Verb() + "_" + r.Name}
}

// CatalogEntries returns the add/change/delete/view permissions of every resource.
func CatalogEntries() []Permission {
	verbs := []string{"add", "change", "delete", "view"}
	out := make([]Permission, 0, len(Resources)*len(verbs))
	for _, r := range Resources {
		for _, v := range verbs {
			out = append(out, Permission{
				Codename: v + "_" + r.Name,
				Name:     "Can " + v + " " + r.Name,
				Domain:   r.Domain,
			})
		}
	}
	return out
}
