// Package authz defines the admin permission vocabulary and the pure
// evaluation primitives used by the request gate.
//
// The vocabulary is a closed, two-level catalog: main menu entities and
// their submenu entities (for example SnapRide owns SnapRideDriverManagement).
// A role is represented as a GrantSet, an O(1) lookup keyed by
// (EntityType, Permission). Evaluation is fail-closed: anything the set
// does not explicitly grant is denied.
package authz
