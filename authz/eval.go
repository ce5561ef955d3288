package authz

// Requirement is one (entity, permission) pair a caller must hold.
type Requirement struct {
	Entity     EntityType
	Permission Permission
}

// String renders the requirement as ENTITY:PERMISSION for denial payloads.
func (r Requirement) String() string {
	return r.Entity.String() + ":" + r.Permission.String()
}

// RequireOne reports whether grants satisfy the single requirement.
// Invalid requirements never match.
func RequireOne(grants GrantSet, req Requirement) bool {
	return grants.Has(req.Entity, req.Permission)
}

// RequireAny reports whether grants satisfy at least one requirement.
// An empty requirement list is a caller bug and evaluates to false.
func RequireAny(grants GrantSet, reqs ...Requirement) bool {
	for _, req := range reqs {
		if grants.Has(req.Entity, req.Permission) {
			return true
		}
	}
	return false
}

// RequireAll reports whether grants satisfy every requirement. An empty
// requirement list evaluates to false, matching RequireAny: a gate with
// nothing to check must not silently allow.
func RequireAll(grants GrantSet, reqs ...Requirement) bool {
	if len(reqs) == 0 {
		return false
	}
	for _, req := range reqs {
		if !grants.Has(req.Entity, req.Permission) {
			return false
		}
	}
	return true
}

// Missing returns the requirements grants do not satisfy, in input order.
func Missing(grants GrantSet, reqs ...Requirement) []Requirement {
	var missing []Requirement
	for _, req := range reqs {
		if !grants.Has(req.Entity, req.Permission) {
			missing = append(missing, req)
		}
	}
	return missing
}
