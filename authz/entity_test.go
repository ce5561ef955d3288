package authz

import (
	"errors"
	"testing"
)

func TestEntityNamesRoundTrip(t *testing.T) {
	for _, e := range Entities() {
		name := e.String()
		if name == "" {
			t.Fatalf("entity %d has no name", e)
		}
		parsed, err := ParseEntityType(name)
		if err != nil {
			t.Fatalf("ParseEntityType(%q): %v", name, err)
		}
		if parsed != e {
			t.Fatalf("ParseEntityType(%q) = %v, want %v", name, parsed, e)
		}
	}
}

func TestParseEntityTypeNormalizes(t *testing.T) {
	e, err := ParseEntityType("  snap_ride_driver_management ")
	if err != nil {
		t.Fatalf("ParseEntityType: %v", err)
	}
	if e != EntitySnapRideDriverManagement {
		t.Fatalf("got %v", e)
	}
}

func TestParseEntityTypeUnknown(t *testing.T) {
	if _, err := ParseEntityType("WAREHOUSE"); !errors.Is(err, ErrUnknownEntityType) {
		t.Fatalf("expected ErrUnknownEntityType, got %v", err)
	}
	if _, err := ParseEntityType(""); !errors.Is(err, ErrUnknownEntityType) {
		t.Fatalf("expected ErrUnknownEntityType for empty name, got %v", err)
	}
}

func TestSubmenuParents(t *testing.T) {
	cases := []struct {
		child  EntityType
		parent EntityType
	}{
		{EntityUsersKYCApproval, EntityUsers},
		{EntityProductCategories, EntityProducts},
		{EntitySnapRideDriverManagement, EntitySnapRide},
		{EntitySnapRideFareConfig, EntitySnapRide},
		{EntityRentalListings, EntityRentals},
		{EntitySettlementSheets, EntitySettlements},
	}

	for _, tc := range cases {
		if !tc.child.IsSubmenu() {
			t.Fatalf("%v should be a submenu entity", tc.child)
		}
		if got := tc.child.Parent(); got != tc.parent {
			t.Fatalf("%v.Parent() = %v, want %v", tc.child, got, tc.parent)
		}
	}
}

func TestMainEntityParentIsSelf(t *testing.T) {
	for _, e := range []EntityType{EntityDashboard, EntityOrders, EntityRoles, EntityReports} {
		if e.IsSubmenu() {
			t.Fatalf("%v should be a main entity", e)
		}
		if e.Parent() != e {
			t.Fatalf("%v.Parent() should be itself", e)
		}
	}
}

func TestInvalidValues(t *testing.T) {
	var e EntityType
	var p Permission

	if e.Valid() || p.Valid() {
		t.Fatal("zero values must be invalid")
	}
	if e.String() != "" || p.String() != "" {
		t.Fatal("invalid values must render empty")
	}
	if e.Parent() != entityInvalid {
		t.Fatal("invalid entity parent must stay invalid")
	}
}

func TestPermissionRoundTrip(t *testing.T) {
	for _, p := range Permissions() {
		parsed, err := ParsePermission(p.String())
		if err != nil {
			t.Fatalf("ParsePermission(%q): %v", p.String(), err)
		}
		if parsed != p {
			t.Fatalf("ParsePermission(%q) = %v, want %v", p.String(), parsed, p)
		}
	}

	if _, err := ParsePermission("APPROVE"); !errors.Is(err, ErrUnknownPermission) {
		t.Fatalf("expected ErrUnknownPermission, got %v", err)
	}
}
