package authz

import "testing"

func supportGrants() GrantSet {
	return NewGrantSet([]Grant{
		{Entity: EntityDashboard, Permission: PermissionView, Granted: true},
		{Entity: EntityUsers, Permission: PermissionView, Granted: true},
		{Entity: EntityUsers, Permission: PermissionEdit, Granted: true},
		{Entity: EntityOrders, Permission: PermissionView, Granted: true},
		{Entity: EntityOrders, Permission: PermissionExport, Granted: true},
	})
}

func TestNewGrantSetDropsDeniedAndInvalidRows(t *testing.T) {
	set := NewGrantSet([]Grant{
		{Entity: EntityUsers, Permission: PermissionView, Granted: true},
		{Entity: EntityUsers, Permission: PermissionDelete, Granted: false},
		{Entity: entityInvalid, Permission: PermissionView, Granted: true},
		{Entity: EntityUsers, Permission: permissionInvalid, Granted: true},
	})

	if set.Len() != 1 {
		t.Fatalf("Len = %d, want 1", set.Len())
	}
	if !set.Has(EntityUsers, PermissionView) {
		t.Fatal("expected USERS:VIEW granted")
	}
	if set.Has(EntityUsers, PermissionDelete) {
		t.Fatal("Granted=false row must deny")
	}
}

func TestRequireOne(t *testing.T) {
	grants := supportGrants()

	if !RequireOne(grants, Requirement{EntityUsers, PermissionEdit}) {
		t.Fatal("expected USERS:EDIT allowed")
	}
	if RequireOne(grants, Requirement{EntityUsers, PermissionDelete}) {
		t.Fatal("expected USERS:DELETE denied")
	}
	if RequireOne(grants, Requirement{}) {
		t.Fatal("zero requirement must never match")
	}
}

func TestRequireAny(t *testing.T) {
	grants := supportGrants()

	if !RequireAny(grants,
		Requirement{EntitySettlements, PermissionView},
		Requirement{EntityOrders, PermissionExport},
	) {
		t.Fatal("expected one match to suffice")
	}
	if RequireAny(grants,
		Requirement{EntitySettlements, PermissionView},
		Requirement{EntityRoles, PermissionEdit},
	) {
		t.Fatal("expected no matches to deny")
	}
	if RequireAny(grants) {
		t.Fatal("empty requirement list must deny")
	}
}

func TestRequireAll(t *testing.T) {
	grants := supportGrants()

	if !RequireAll(grants,
		Requirement{EntityUsers, PermissionView},
		Requirement{EntityUsers, PermissionEdit},
	) {
		t.Fatal("expected both requirements met")
	}
	if RequireAll(grants,
		Requirement{EntityUsers, PermissionView},
		Requirement{EntityUsers, PermissionDelete},
	) {
		t.Fatal("one unmet requirement must deny")
	}
	if RequireAll(grants) {
		t.Fatal("empty requirement list must deny")
	}
}

func TestRequireOnEmptySet(t *testing.T) {
	var empty GrantSet

	if RequireOne(empty, Requirement{EntityDashboard, PermissionView}) {
		t.Fatal("empty set must deny RequireOne")
	}
	if RequireAny(empty, Requirement{EntityDashboard, PermissionView}) {
		t.Fatal("empty set must deny RequireAny")
	}
	if RequireAll(empty, Requirement{EntityDashboard, PermissionView}) {
		t.Fatal("empty set must deny RequireAll")
	}
}

func TestMissing(t *testing.T) {
	grants := supportGrants()

	missing := Missing(grants,
		Requirement{EntityUsers, PermissionView},
		Requirement{EntityRoles, PermissionEdit},
		Requirement{EntitySettlements, PermissionExport},
	)

	if len(missing) != 2 {
		t.Fatalf("len(missing) = %d, want 2", len(missing))
	}
	if missing[0].String() != "ROLES:EDIT" {
		t.Fatalf("missing[0] = %q", missing[0].String())
	}
	if missing[1].String() != "SETTLEMENTS:EXPORT" {
		t.Fatalf("missing[1] = %q", missing[1].String())
	}
}

func TestSubmenuGrantDoesNotImplyParent(t *testing.T) {
	grants := NewGrantSet([]Grant{
		{Entity: EntitySnapRideDriverManagement, Permission: PermissionView, Granted: true},
	})

	if !grants.Has(EntitySnapRideDriverManagement, PermissionView) {
		t.Fatal("expected submenu grant present")
	}
	if grants.Has(EntitySnapRide, PermissionView) {
		t.Fatal("submenu grant must not leak to the parent entity")
	}
}
