/*

Package datatable compiles the raw send-table/server-class definitions
carried by a demo's DataTables packet into, per server class, the
flattened, ordered property list the entity-delta engine decodes against
(spec §4.3). The flatten/exclude/sort algorithm has no Brood War analog
in the teacher (StarCraft: Brood War has no networked entity schema) and
is implemented directly from spec.md's description, matching the
well-known Source-engine "GatherProps" shape.

*/
package datatable

import (
	"hash/fnv"

	"github.com/icza/demorec/demo/common"
)

// PropType is the wire type tag of a SendProp's value.
type PropType struct {
	common.Enum
	ID int
}

// Property types.
var (
	PropTypeInt       = PropType{common.Enum{"Int"}, 0}
	PropTypeFloat     = PropType{common.Enum{"Float"}, 1}
	PropTypeVector    = PropType{common.Enum{"Vector"}, 2}
	PropTypeVectorXY  = PropType{common.Enum{"VectorXY"}, 3}
	PropTypeString    = PropType{common.Enum{"String"}, 4}
	PropTypeArray     = PropType{common.Enum{"Array"}, 5}
	PropTypeDataTable = PropType{common.Enum{"DataTable"}, 6}
	PropTypeInt64     = PropType{common.Enum{"Int64"}, 7}
)

// PropFlags is the bitset carried by every SendProp.
type PropFlags uint32

// Flag bits of interest (spec §3).
const (
	PropFlagUnsigned PropFlags = 1 << iota
	PropFlagCoord
	PropFlagNoScale
	PropFlagRoundDown
	PropFlagRoundUp
	PropFlagNormal
	PropFlagExclude
	PropFlagXYZE
	PropFlagInsideArray
	PropFlagProxyAlwaysYes
	PropFlagChangesOften
	PropFlagCollapsible
	PropFlagCoordMP
	PropFlagCoordMPLowPrecision
	PropFlagCoordMPIntegral
)

func (f PropFlags) Has(bit PropFlags) bool { return f&bit != 0 }

// SendProp is one field definition within a SendTable.
type SendProp struct {
	Name  string
	Flags PropFlags
	Type  PropType

	// Bits, Low, High describe numeric/bit-coord encodings (§4.1).
	Bits      int
	Low, High float32

	// DTName is the referenced child table name, for Type == DataTable,
	// and is also the table the flag PropFlagExclude's exclude marker
	// names (spec's "(table_name, prop_name)" pair: DTName, Name here).
	DTName string

	// ArrayElementProp and ArrayNumElements apply when Type == Array.
	ArrayElementProp *SendProp
	ArrayNumElements int
}

// SendTable is a named, ordered list of SendProp definitions.
type SendTable struct {
	Name        string
	Props       []*SendProp
	NeedsDecode bool // mirrors the wire's own advisory flag; not load-bearing
}

// ServerClassInfo names one server class and the send table backing it.
type ServerClassInfo struct {
	ID     int
	Name   string
	DTName string
}

// FlattenedProp is one entry of a class's decoding order: the original
// SendProp plus its stable identifier.
type FlattenedProp struct {
	Prop       *SendProp
	Identifier uint64
}

// FlattenedPropTable is the per-class decoding order produced by Compile.
type FlattenedPropTable struct {
	ClassID   int
	ClassName string
	Props     []*FlattenedProp
}

type excludeKey struct {
	table, prop string
}

// Compile resolves each class's root send table and flattens it per
// spec §4.3: depth-first walk honoring excludes and the Collapsible
// inlining flag, then a stable ChangesOften-first partition.
//
// It is a pure function: the result depends only on tables and classes.
func Compile(tables []*SendTable, classes []ServerClassInfo) ([]*FlattenedPropTable, error) {
	byName := make(map[string]*SendTable, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}

	result := make([]*FlattenedPropTable, 0, len(classes))
	for _, class := range classes {
		root, ok := byName[class.DTName]
		if !ok {
			return nil, common.NewParseError(common.KindUnknownSendTable, "datatable", class.DTName, nil)
		}

		excludes := make(map[excludeKey]bool)
		gatherExcludes(root, byName, excludes)

		var flat []*SendProp
		gatherProps(root, byName, excludes, &flat)

		ordered := partitionChangesOften(flat)

		props := make([]*FlattenedProp, len(ordered))
		for i, p := range ordered {
			props[i] = &FlattenedProp{Prop: p, Identifier: identifier(root.Name, p.Name)}
		}

		result = append(result, &FlattenedPropTable{
			ClassID:   class.ID,
			ClassName: class.Name,
			Props:     props,
		})
	}

	return result, nil
}

func gatherExcludes(table *SendTable, byName map[string]*SendTable, excludes map[excludeKey]bool) {
	for _, p := range table.Props {
		if p.Flags.Has(PropFlagExclude) {
			excludes[excludeKey{p.DTName, p.Name}] = true
			continue
		}
		if p.Type == PropTypeDataTable {
			if child, ok := byName[p.DTName]; ok {
				gatherExcludes(child, byName, excludes)
			}
		}
	}
}

func gatherProps(table *SendTable, byName map[string]*SendTable, excludes map[excludeKey]bool, out *[]*SendProp) {
	var nested []*SendProp

	for _, p := range table.Props {
		if p.Flags.Has(PropFlagExclude) {
			continue
		}
		if excludes[excludeKey{table.Name, p.Name}] {
			continue
		}
		if p.Type == PropTypeDataTable {
			child, ok := byName[p.DTName]
			if !ok {
				continue
			}
			if p.Flags.Has(PropFlagCollapsible) {
				gatherProps(child, byName, excludes, out)
			} else {
				nested = append(nested, p)
			}
			continue
		}
		*out = append(*out, p)
	}

	for _, p := range nested {
		if child, ok := byName[p.DTName]; ok {
			gatherProps(child, byName, excludes, out)
		}
	}
}

// partitionChangesOften stably moves ChangesOften props to the front.
func partitionChangesOften(props []*SendProp) []*SendProp {
	ordered := make([]*SendProp, 0, len(props))
	for _, p := range props {
		if p.Flags.Has(PropFlagChangesOften) {
			ordered = append(ordered, p)
		}
	}
	for _, p := range props {
		if !p.Flags.Has(PropFlagChangesOften) {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

// identifier computes the stable 64-bit send-prop identifier from
// (table_name, field_name), per spec §3.
func identifier(tableName, propName string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(tableName))
	h.Write([]byte{0})
	h.Write([]byte(propName))
	return h.Sum64()
}
