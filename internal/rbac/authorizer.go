package rbac

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"
)

// Store is the read side the authorizer resolves decisions from.
type Store interface {
	// PrincipalGrants returns the user's flags and direct permission codenames.
	PrincipalGrants(ctx context.Context, userID uuid.UUID) (Grants, error)
	// PermissionDomains lists the domains declaring codename in the catalog.
	PermissionDomains(ctx context.Context, codename string) ([]string, error)
	// ActiveRoleIDs returns roles from active, non-deleted assignments whose role is itself active and non-deleted.
	ActiveRoleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// RolesHold reports whether any of roleIDs holds (domain, codename).
	RolesHold(ctx context.Context, roleIDs []uuid.UUID, domain, codename string) (bool, error)
}

// DecisionRecorder observes authorization outcomes.
type DecisionRecorder interface {
	RecordDecision(capability string, granted bool)
}

// Authorizer answers whether a user holds a capability.
type Authorizer struct {
	store    Store
	logger   *slog.Logger
	recorder DecisionRecorder
}

// NewAuthorizer constructs an Authorizer. recorder may be nil.
func NewAuthorizer(store Store, logger *slog.Logger, recorder DecisionRecorder) *Authorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{store: store, logger: logger, recorder: recorder}
}

// Authorize reports whether userID holds capability. Lookup failures deny.
// Nothing is cached; each call reads the store.
func (a *Authorizer) Authorize(ctx context.Context, userID uuid.UUID, capability Capability) bool {
	granted := a.decide(ctx, userID, capability)
	if a.recorder != nil {
		a.recorder.RecordDecision(capability.String(), granted)
	}
	return granted
}

func (a *Authorizer) decide(ctx context.Context, userID uuid.UUID, capability Capability) bool {
	log := a.logger.With(slog.String("user_id", userID.String()), slog.String("capability", capability.String()))

	grants, err := a.store.PrincipalGrants(ctx, userID)
	if err != nil {
		log.Warn("rbac principal grants", slog.Any("error", err))
		return false
	}
	if grants.IsSuperuser && grants.IsActive {
		return true
	}
	if grants.Has(capability.Codename) {
		return true
	}

	domains, err := a.store.PermissionDomains(ctx, capability.Codename)
	if err != nil {
		log.Warn("rbac permission domains", slog.Any("error", err))
		return false
	}
	domain, ok := resolveDomain(capability.Domain, domains)
	if !ok {
		log.Debug("rbac capability not in catalog")
		return false
	}

	roleIDs, err := a.store.ActiveRoleIDs(ctx, userID)
	if err != nil {
		log.Warn("rbac active roles", slog.Any("error", err))
		return false
	}
	if len(roleIDs) == 0 {
		log.Debug("rbac no active roles")
		return false
	}

	held, err := a.store.RolesHold(ctx, roleIDs, domain, capability.Codename)
	if err != nil {
		log.Warn("rbac role permissions", slog.Any("error", err))
		return false
	}
	return held
}

// resolveDomain picks the domain to check. A declared domain must be in the
// catalog; otherwise the lexically first catalog domain wins.
func resolveDomain(declared string, catalog []string) (string, bool) {
	if len(catalog) == 0 {
		return "", false
	}
	if declared != "" {
		for _, d := range catalog {
			if d == declared {
				return d, true
			}
		}
		return "", false
	}
	sorted := append([]string(nil), catalog...)
	sort.Strings(sorted)
	return sorted[0], true
}
