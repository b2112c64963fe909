// This file contains the base Enum type shared by every closed-set wire
// value in the demo format (property types, flags, message types, ...).

package common

import "fmt"

// Enum is the base / common part of enum-like wire values.
type Enum struct {
	// Name of the entity
	Name string
}

// String returns the string representation of the enum (the name).
// Defined with value receiver so this gets called even if a non-pointer is used.
func (e Enum) String() string {
	return e.Name
}

// UnknownEnum constructs a new Enum for an unknown entity with a name:
//
//	"Unknown 0xID"
//
// ID must be an integer number.
func UnknownEnum(id any) Enum {
	return Enum{fmt.Sprintf("Unknown 0x%x", id)}
}
