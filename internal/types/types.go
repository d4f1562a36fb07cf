// Package types implements the type registry: primitive, pointer, array,
// struct/union, enum and typedef types, with tight-packing struct/union
// layout (no alignment padding).
package types

import "fmt"

// Kind discriminates the shape a Type describes.
type Kind int

// The kinds of type this compiler understands. Floats, bitfields and
// function-pointer types are out of scope.
const (
	Void Kind = iota
	Char
	Int
	Long
	Pointer
	Array
	Struct
	Union
	Enum
)

// Member describes one field of a Struct/Union-kinded Type.
type Member struct {
	Name   string
	Type   *Type
	Offset int
}

// Type is a single registered type. Only the fields relevant to Kind are
// meaningful; the others are zero.
type Type struct {
	Kind     Kind
	Name     string // non-empty for named struct/union/enum
	Size     int
	PointsTo *Type  // Pointer: pointee; Array: element type
	ArrayLen int    // Array; 0 means a flexible array not sized yet
	Members  []Member // Struct, Union
	IsUnion  bool
}

func (t *Type) String() string {
	switch t.Kind {
	case Void:
		return "void"
	case Char:
		return "char"
	case Int:
		return "int"
	case Long:
		return "long"
	case Pointer:
		return t.PointsTo.String() + "*"
	case Array:
		return fmt.Sprintf("%s[%d]", t.PointsTo.String(), t.ArrayLen)
	case Struct:
		return "struct " + t.Name
	case Union:
		return "union " + t.Name
	case Enum:
		return "enum " + t.Name
	default:
		return "?"
	}
}

// Registry owns every type known to a translation unit: the primitive set,
// every pointer/array type derived from them, and every named
// struct/union/enum/typedef the parser declares.
type Registry struct {
	byName    map[string]*Type
	pointerTo map[*Type]*Type
	arrayOf   map[arrayKey]*Type
}

type arrayKey struct {
	elem *Type
	len  int
}

// NewRegistry returns a Registry seeded with void/char/int/long and the
// pointer-to-char type string literals need immediately.
func NewRegistry() *Registry {
	r := &Registry{
		byName:    make(map[string]*Type),
		pointerTo: make(map[*Type]*Type),
		arrayOf:   make(map[arrayKey]*Type),
	}
	r.byName["void"] = &Type{Kind: Void, Size: 0}
	r.byName["char"] = &Type{Kind: Char, Size: 1}
	r.byName["int"] = &Type{Kind: Int, Size: 4}
	r.byName["long"] = &Type{Kind: Long, Size: 8}
	r.AddPointerType(r.byName["char"])
	return r
}

// FindType looks up a primitive or previously declared named type.
func (r *Registry) FindType(name string) (*Type, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// AddPointerType returns the (idempotent) pointer-to-elem type.
func (r *Registry) AddPointerType(elem *Type) *Type {
	if t, ok := r.pointerTo[elem]; ok {
		return t
	}
	t := &Type{Kind: Pointer, Size: 8, PointsTo: elem}
	r.pointerTo[elem] = t
	return t
}

// AddArrayType returns the (idempotent) array-of-elem[length] type.
// length == 0 denotes a flexible array awaiting an initializer to size it.
func (r *Registry) AddArrayType(elem *Type, length int) *Type {
	key := arrayKey{elem, length}
	if t, ok := r.arrayOf[key]; ok {
		return t
	}
	t := &Type{Kind: Array, PointsTo: elem, ArrayLen: length, Size: elem.Size * length}
	r.arrayOf[key] = t
	return t
}

// AddStructType registers a new (possibly anonymous) struct type.
func (r *Registry) AddStructType(name string, anonymous bool) *Type {
	t := &Type{Kind: Struct, Name: name}
	if !anonymous {
		r.byName["struct "+name] = t
	}
	return t
}

// AddUnionType registers a new (possibly anonymous) union type.
func (r *Registry) AddUnionType(name string, anonymous bool) *Type {
	t := &Type{Kind: Union, Name: name, IsUnion: true}
	if !anonymous {
		r.byName["union "+name] = t
	}
	return t
}

// AddEnumType registers a new enum type; its underlying representation is
// always int.
func (r *Registry) AddEnumType(name string) *Type {
	t := &Type{Kind: Enum, Name: name, Size: 4}
	if name != "" {
		r.byName["enum "+name] = t
	}
	return t
}

// AddTypedef registers name as an alias for t.
func (r *Registry) AddTypedef(name string, t *Type) *Type {
	r.byName[name] = t
	return t
}

// AddStructMember appends a tightly-packed member (no alignment padding) to
// a struct or union type, growing its Size.
func (r *Registry) AddStructMember(st *Type, name string, mt *Type, isUnion bool) {
	offset := 0
	if !isUnion {
		offset = st.Size
	}
	st.Members = append(st.Members, Member{Name: name, Type: mt, Offset: offset})
	if isUnion {
		if mt.Size > st.Size {
			st.Size = mt.Size
		}
	} else {
		st.Size = offset + mt.Size
	}
}

// FindStructMember looks up a member by name on a struct/union type.
func (r *Registry) FindStructMember(t *Type, name string) (*Member, bool) {
	for i := range t.Members {
		if t.Members[i].Name == name {
			return &t.Members[i], true
		}
	}
	return nil, false
}

// CopyUnionMemberToStruct hoists an anonymous union's members into its
// enclosing struct, at the union field's own offset, implementing C's
// anonymous-union member promotion.
func (r *Registry) CopyUnionMemberToStruct(outer, innerUnion *Type) {
	base := 0
	for i := range outer.Members {
		if outer.Members[i].Type == innerUnion {
			base = outer.Members[i].Offset
			break
		}
	}
	for _, m := range innerUnion.Members {
		outer.Members = append(outer.Members, Member{Name: m.Name, Type: m.Type, Offset: base + m.Offset})
	}
}

// Size returns t's size in bytes, matching the emitter's stack-layout
// arithmetic exactly.
func (r *Registry) Size(t *Type) int {
	if t.Kind == Array {
		return t.PointsTo.Size * t.ArrayLen
	}
	return t.Size
}

// IsSame reports whether a and b denote the same type.
func (r *Registry) IsSame(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Pointer:
		return r.IsSame(a.PointsTo, b.PointsTo)
	case Array:
		return a.ArrayLen == b.ArrayLen && r.IsSame(a.PointsTo, b.PointsTo)
	case Struct, Union, Enum:
		return a.Name == b.Name
	default:
		return true
	}
}
