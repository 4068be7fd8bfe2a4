package rbac_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/eventhub/internal/rbac"
	"github.com/eventhub/eventhub/internal/shared"
)

type memRole struct {
	active  bool
	deleted bool
	perms   []rbac.Capability
}

type memAssignment struct {
	user    uuid.UUID
	role    uuid.UUID
	active  bool
	deleted bool
}

type memStore struct {
	users       map[uuid.UUID]rbac.Grants
	catalog     []rbac.Permission
	roles       map[uuid.UUID]*memRole
	assignments []*memAssignment
	fail        string
	calls       int
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[uuid.UUID]rbac.Grants{},
		catalog: rbac.CatalogEntries(),
		roles:   map[uuid.UUID]*memRole{},
	}
}

func (m *memStore) addUser(g rbac.Grants) uuid.UUID {
	id := uuid.New()
	m.users[id] = g
	return id
}

func (m *memStore) addRole(active bool, perms ...rbac.Capability) uuid.UUID {
	id := uuid.New()
	m.roles[id] = &memRole{active: active, perms: perms}
	return id
}

func (m *memStore) assign(user, role uuid.UUID, active bool) *memAssignment {
	a := &memAssignment{user: user, role: role, active: active}
	m.assignments = append(m.assignments, a)
	return a
}

func (m *memStore) PrincipalGrants(_ context.Context, userID uuid.UUID) (rbac.Grants, error) {
	m.calls++
	if m.fail == "grants" {
		return rbac.Grants{}, errors.New("db down")
	}
	g, ok := m.users[userID]
	if !ok {
		return rbac.Grants{}, shared.ErrResourceNotFound
	}
	return g, nil
}

func (m *memStore) PermissionDomains(_ context.Context, codename string) ([]string, error) {
	if m.fail == "domains" {
		return nil, errors.New("db down")
	}
	var out []string
	for _, p := range m.catalog {
		if p.Codename == codename {
			out = append(out, p.Domain)
		}
	}
	return out, nil
}

func (m *memStore) ActiveRoleIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if m.fail == "roles" {
		return nil, errors.New("db down")
	}
	var out []uuid.UUID
	for _, a := range m.assignments {
		r := m.roles[a.role]
		if a.user == userID && a.active && !a.deleted && r != nil && r.active && !r.deleted {
			out = append(out, a.role)
		}
	}
	return out, nil
}

func (m *memStore) RolesHold(_ context.Context, roleIDs []uuid.UUID, domain, codename string) (bool, error) {
	if m.fail == "hold" {
		return false, errors.New("db down")
	}
	for _, id := range roleIDs {
		for _, c := range m.roles[id].perms {
			if c.Domain == domain && c.Codename == codename {
				return true, nil
			}
		}
	}
	return false, nil
}

type countingRecorder struct {
	granted, denied int
}

func (c *countingRecorder) RecordDecision(_ string, granted bool) {
	if granted {
		c.granted++
	} else {
		c.denied++
	}
}

var addEvent = rbac.Event.Capability(rbac.ActionCreate)

func TestAuthorizeSuperuserBypassesRoles(t *testing.T) {
	store := newMemStore()
	admin := store.addUser(rbac.Grants{IsActive: true, IsSuperuser: true})
	a := rbac.NewAuthorizer(store, nil, nil)

	assert.True(t, a.Authorize(context.Background(), admin, addEvent))
	assert.True(t, a.Authorize(context.Background(), admin, rbac.Capability{Codename: "not_in_catalog"}))
}

func TestAuthorizeInactiveSuperuserFallsThrough(t *testing.T) {
	store := newMemStore()
	admin := store.addUser(rbac.Grants{IsSuperuser: true})
	a := rbac.NewAuthorizer(store, nil, nil)

	assert.False(t, a.Authorize(context.Background(), admin, addEvent))
}

func TestAuthorizeDirectGrant(t *testing.T) {
	store := newMemStore()
	user := store.addUser(rbac.Grants{IsActive: true, Codenames: []string{"add_event"}})
	a := rbac.NewAuthorizer(store, nil, nil)

	assert.True(t, a.Authorize(context.Background(), user, addEvent))
	assert.False(t, a.Authorize(context.Background(), user, rbac.Event.Capability(rbac.ActionDestroy)))
}

func TestAuthorizeThroughActiveRole(t *testing.T) {
	store := newMemStore()
	user := store.addUser(rbac.Grants{IsActive: true})
	role := store.addRole(true, addEvent)
	store.assign(user, role, true)
	a := rbac.NewAuthorizer(store, nil, nil)

	assert.True(t, a.Authorize(context.Background(), user, addEvent))
	assert.False(t, a.Authorize(context.Background(), user, rbac.Event.Capability(rbac.ActionUpdate)))
}

func TestAuthorizeInactiveAssignmentDenies(t *testing.T) {
	store := newMemStore()
	user := store.addUser(rbac.Grants{IsActive: true})
	role := store.addRole(true, addEvent)
	assignment := store.assign(user, role, false)
	a := rbac.NewAuthorizer(store, nil, nil)

	assert.False(t, a.Authorize(context.Background(), user, addEvent))

	assignment.active = true
	assert.True(t, a.Authorize(context.Background(), user, addEvent))

	assignment.deleted = true
	assert.False(t, a.Authorize(context.Background(), user, addEvent))
}

func TestAuthorizeInactiveOrDeletedRoleDenies(t *testing.T) {
	store := newMemStore()
	user := store.addUser(rbac.Grants{IsActive: true})
	role := store.addRole(false, addEvent)
	store.assign(user, role, true)
	a := rbac.NewAuthorizer(store, nil, nil)

	assert.False(t, a.Authorize(context.Background(), user, addEvent))

	store.roles[role].active = true
	store.roles[role].deleted = true
	assert.False(t, a.Authorize(context.Background(), user, addEvent))
}

func TestAuthorizeDomainMustMatch(t *testing.T) {
	store := newMemStore()
	// Same codename declared in two domains; the role holds only one of them.
	store.catalog = append(store.catalog, rbac.Permission{Codename: "view_report", Domain: "event_management"},
		rbac.Permission{Codename: "view_report", Domain: "security"})
	user := store.addUser(rbac.Grants{IsActive: true})
	role := store.addRole(true, rbac.Capability{Domain: "security", Codename: "view_report"})
	store.assign(user, role, true)
	a := rbac.NewAuthorizer(store, nil, nil)
	ctx := context.Background()

	assert.True(t, a.Authorize(ctx, user, rbac.Capability{Domain: "security", Codename: "view_report"}))
	assert.False(t, a.Authorize(ctx, user, rbac.Capability{Domain: "event_management", Codename: "view_report"}))
	assert.False(t, a.Authorize(ctx, user, rbac.Capability{Domain: "billing", Codename: "view_report"}))

	domains, err := store.PermissionDomains(ctx, "view_report")
	require.NoError(t, err)
	sort.Strings(domains)
	// Without a declared domain the lexically first catalog domain is used.
	require.Equal(t, "event_management", domains[0])
	assert.False(t, a.Authorize(ctx, user, rbac.Capability{Codename: "view_report"}))
}

func TestAuthorizeUnknownCodenameDenies(t *testing.T) {
	store := newMemStore()
	user := store.addUser(rbac.Grants{IsActive: true})
	role := store.addRole(true, rbac.Capability{Domain: rbac.DomainEventManagement, Codename: "launch_rocket"})
	store.assign(user, role, true)
	a := rbac.NewAuthorizer(store, nil, nil)

	assert.False(t, a.Authorize(context.Background(), user, rbac.Capability{Domain: rbac.DomainEventManagement, Codename: "launch_rocket"}))
}

func TestAuthorizeStoreErrorsDeny(t *testing.T) {
	for _, stage := range []string{"grants", "domains", "roles", "hold"} {
		t.Run(stage, func(t *testing.T) {
			store := newMemStore()
			user := store.addUser(rbac.Grants{IsActive: true})
			role := store.addRole(true, addEvent)
			store.assign(user, role, true)
			store.fail = stage
			a := rbac.NewAuthorizer(store, nil, nil)

			assert.False(t, a.Authorize(context.Background(), user, addEvent))
		})
	}
}

func TestAuthorizeUnknownUserDenies(t *testing.T) {
	a := rbac.NewAuthorizer(newMemStore(), nil, nil)
	assert.False(t, a.Authorize(context.Background(), uuid.New(), addEvent))
}

func TestAuthorizeIsIdempotentAndUncached(t *testing.T) {
	store := newMemStore()
	user := store.addUser(rbac.Grants{IsActive: true})
	role := store.addRole(true, addEvent)
	assignment := store.assign(user, role, true)
	recorder := &countingRecorder{}
	a := rbac.NewAuthorizer(store, nil, recorder)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.True(t, a.Authorize(ctx, user, addEvent))
	}
	assert.Equal(t, 5, store.calls)
	assert.Equal(t, 5, recorder.granted)

	assignment.active = false
	assert.False(t, a.Authorize(ctx, user, addEvent))
	assert.Equal(t, 1, recorder.denied)
}

func TestActionVerbs(t *testing.T) {
	cases := map[rbac.Action]string{
		rbac.ActionList:     "view_category",
		rbac.ActionRetrieve: "view_category",
		rbac.ActionCreate:   "add_category",
		rbac.ActionUpdate:   "change_category",
		rbac.ActionDestroy:  "delete_category",
	}
	for action, codename := range cases {
		got := rbac.Category.Capability(action)
		assert.Equal(t, codename, got.Codename)
		assert.Equal(t, rbac.DomainEventManagement, got.Domain)
	}
	assert.Equal(t, "security", rbac.UserRole.Capability(rbac.ActionList).Domain)
	assert.Len(t, rbac.CatalogEntries(), len(rbac.Resources)*4)
}
