package authz

// GrantKey addresses a single cell of a role's permission matrix.
type GrantKey struct {
	Entity     EntityType
	Permission Permission
}

// Grant is one row of role configuration as loaded from the role
// directory. Granted=false rows are allowed and are equivalent to the
// row being absent.
type Grant struct {
	Entity     EntityType
	Permission Permission
	Granted    bool
}

// GrantSet is the evaluated form of a role: constant-time membership
// checks keyed by (entity, permission). The set is read-only after
// construction and safe for concurrent readers.
type GrantSet struct {
	grants map[GrantKey]struct{}
}

// NewGrantSet builds a GrantSet from directory rows. Rows with invalid
// entities or permissions and rows with Granted=false are dropped rather
// than failing the whole role; a role must stay loadable even when an
// older deployment wrote rows this binary no longer recognizes.
func NewGrantSet(rows []Grant) GrantSet {
	m := make(map[GrantKey]struct{}, len(rows))
	for _, row := range rows {
		if !row.Granted || !row.Entity.Valid() || !row.Permission.Valid() {
			continue
		}
		m[GrantKey{Entity: row.Entity, Permission: row.Permission}] = struct{}{}
	}
	return GrantSet{grants: m}
}

// Has reports whether the set grants permission p on entity e.
func (s GrantSet) Has(e EntityType, p Permission) bool {
	if s.grants == nil {
		return false
	}
	_, ok := s.grants[GrantKey{Entity: e, Permission: p}]
	return ok
}

// Len returns the number of granted cells.
func (s GrantSet) Len() int {
	return len(s.grants)
}

// Keys returns the granted cells in unspecified order.
func (s GrantSet) Keys() []GrantKey {
	out := make([]GrantKey, 0, len(s.grants))
	for k := range s.grants {
		out = append(out, k)
	}
	return out
}
