package authz

import (
	"errors"
	"strings"
)

// EntityType identifies one entry of the admin menu catalog. The zero
// value is invalid so that an uninitialized requirement can never match
// a grant.
type EntityType uint8

const (
	entityInvalid EntityType = iota

	// Main menu entities.
	EntityDashboard
	EntityUsers
	EntityOrders
	EntityProducts
	EntitySnapRide
	EntityRentals
	EntitySettlements
	EntityRoles
	EntityReports

	// Submenu entities. Each belongs to exactly one main entity.
	EntityUsersKYCApproval
	EntityProductCategories
	EntitySnapRideDriverManagement
	EntitySnapRideFareConfig
	EntityRentalListings
	EntitySettlementSheets

	entityTypeCount
)

// ErrUnknownEntityType is returned by ParseEntityType for names outside
// the catalog.
var ErrUnknownEntityType = errors.New("unknown entity type")

var entityNames = [entityTypeCount]string{
	EntityDashboard:                "DASHBOARD",
	EntityUsers:                    "USERS",
	EntityOrders:                   "ORDERS",
	EntityProducts:                 "PRODUCTS",
	EntitySnapRide:                 "SNAP_RIDE",
	EntityRentals:                  "RENTALS",
	EntitySettlements:              "SETTLEMENTS",
	EntityRoles:                    "ROLES",
	EntityReports:                  "REPORTS",
	EntityUsersKYCApproval:         "USERS_KYC_APPROVAL",
	EntityProductCategories:        "PRODUCT_CATEGORIES",
	EntitySnapRideDriverManagement: "SNAP_RIDE_DRIVER_MANAGEMENT",
	EntitySnapRideFareConfig:       "SNAP_RIDE_FARE_CONFIG",
	EntityRentalListings:           "RENTAL_LISTINGS",
	EntitySettlementSheets:         "SETTLEMENT_SHEETS",
}

var entityParents = [entityTypeCount]EntityType{
	EntityUsersKYCApproval:         EntityUsers,
	EntityProductCategories:        EntityProducts,
	EntitySnapRideDriverManagement: EntitySnapRide,
	EntitySnapRideFareConfig:       EntitySnapRide,
	EntityRentalListings:           EntityRentals,
	EntitySettlementSheets:         EntitySettlements,
}

var entityByName = func() map[string]EntityType {
	m := make(map[string]EntityType, int(entityTypeCount)-1)
	for e := EntityType(1); e < entityTypeCount; e++ {
		m[entityNames[e]] = e
	}
	return m
}()

// Valid reports whether e names a catalog entity.
func (e EntityType) Valid() bool {
	return e > entityInvalid && e < entityTypeCount
}

// String returns the stable wire name of the entity, or "" when invalid.
func (e EntityType) String() string {
	if !e.Valid() {
		return ""
	}
	return entityNames[e]
}

// Parent returns the owning main entity for a submenu entity. Main
// entities return themselves.
func (e EntityType) Parent() EntityType {
	if !e.Valid() {
		return entityInvalid
	}
	if p := entityParents[e]; p != entityInvalid {
		return p
	}
	return e
}

// IsSubmenu reports whether e is a submenu entity.
func (e EntityType) IsSubmenu() bool {
	return e.Valid() && entityParents[e] != entityInvalid
}

// ParseEntityType maps a wire name back to its EntityType. Matching is
// case-insensitive on the canonical upper-snake names.
func ParseEntityType(name string) (EntityType, error) {
	e, ok := entityByName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return entityInvalid, ErrUnknownEntityType
	}
	return e, nil
}

// Entities returns every catalog entity in declaration order.
func Entities() []EntityType {
	out := make([]EntityType, 0, int(entityTypeCount)-1)
	for e := EntityType(1); e < entityTypeCount; e++ {
		out = append(out, e)
	}
	return out
}

// Permission is one of the five admin actions evaluated against an entity.
type Permission uint8

const (
	permissionInvalid Permission = iota
	PermissionView
	PermissionAdd
	PermissionEdit
	PermissionDelete
	PermissionExport

	permissionCount
)

// ErrUnknownPermission is returned by ParsePermission for names outside
// the closed action set.
var ErrUnknownPermission = errors.New("unknown permission")

var permissionNames = [permissionCount]string{
	PermissionView:   "VIEW",
	PermissionAdd:    "ADD",
	PermissionEdit:   "EDIT",
	PermissionDelete: "DELETE",
	PermissionExport: "EXPORT",
}

// Valid reports whether p is one of the five known actions.
func (p Permission) Valid() bool {
	return p > permissionInvalid && p < permissionCount
}

// String returns the stable wire name of the permission, or "" when invalid.
func (p Permission) String() string {
	if !p.Valid() {
		return ""
	}
	return permissionNames[p]
}

// Permissions returns every known action in declaration order.
func Permissions() []Permission {
	return []Permission{PermissionView, PermissionAdd, PermissionEdit, PermissionDelete, PermissionExport}
}

// ParsePermission maps a wire name back to its Permission.
func ParsePermission(name string) (Permission, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "VIEW":
		return PermissionView, nil
	case "ADD":
		return PermissionAdd, nil
	case "EDIT":
		return PermissionEdit, nil
	case "DELETE":
		return PermissionDelete, nil
	case "EXPORT":
		return PermissionExport, nil
	default:
		return permissionInvalid, ErrUnknownPermission
	}
}
