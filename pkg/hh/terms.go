package hh

import "fmt"

// DefID names a declaration (an ADT, trait, fn, associated type, ...)
// owned by the external program database. The core never looks inside
// a DefID; it is an opaque key the ClauseProvider understands.
type (
	AdtID        struct{ Name string }
	TraitID      struct{ Name string }
	FnDefID      struct{ Name string }
	AssocTypeID  struct{ Name string }
	OpaqueID     struct{ Name string }
	ClosureID    struct{ Name string }
	CoroutineID  struct{ Name string }
)

func (id AdtID) String() string       { return id.Name }
func (id TraitID) String() string     { return id.Name }
func (id FnDefID) String() string     { return id.Name }
func (id AssocTypeID) String() string { return id.Name }
func (id OpaqueID) String() string    { return id.Name }
func (id ClosureID) String() string   { return id.Name }
func (id CoroutineID) String() string { return id.Name }

// ScalarKind enumerates the primitive scalar types.
type ScalarKind int

const (
	ScalarBool ScalarKind = iota
	ScalarChar
	ScalarInt
	ScalarUint
	ScalarFloat
	ScalarStr
)

func (s ScalarKind) String() string {
	switch s {
	case ScalarBool:
		return "bool"
	case ScalarChar:
		return "char"
	case ScalarInt:
		return "int"
	case ScalarUint:
		return "uint"
	case ScalarFloat:
		return "float"
	case ScalarStr:
		return "str"
	default:
		return "scalar?"
	}
}

// InferenceVarID names an inference variable inside one InferenceTable.
// IDs are only meaningful relative to the table that minted them; they
// are never compared across tables.
type InferenceVarID struct {
	id   uint32
	kind ParameterKind
}

func (v InferenceVarID) Kind() ParameterKind { return v.kind }

func (v InferenceVarID) String() string {
	return fmt.Sprintf("?%d", v.id)
}

// Type is an interned handle to one node of the type universe: a
// bound variable, an inference variable, a placeholder, or one of the
// structural type formers (ADT application, tuple, reference, dyn
// Trait object, associated-type projection, ...). Equal Types are
// pointer-equal; never construct one directly, always go through an
// Interner.
type Type struct {
	id   uint64
	data TypeData
}

// TypeData is the payload carried by an interned Type. Each concrete
// implementation corresponds to one alternative of the sum type
// described in the data model: bound-variable, inference-variable,
// placeholder, ADT application, tuple, array, slice, reference, raw
// pointer, fn-def application, fn pointer, closure, coroutine,
// projection, opaque application, dyn object, never, scalar, error.
type TypeData interface {
	isTypeData()
}

type BoundVarTy struct{ Var BoundVar }
type InferenceVarTy struct{ Var InferenceVarID }
type PlaceholderTy struct{ Placeholder Placeholder }
type AdtTy struct {
	ID   AdtID
	Args []GenericArg
}
type TupleTy struct{ Elems []*Type }
type ArrayTy struct {
	Elem *Type
	Len  *Const
}
type SliceTy struct{ Elem *Type }
type RefTy struct {
	Lifetime  *Lifetime
	Mutable   bool
	Referent  *Type
}
type RawPtrTy struct {
	Mutable bool
	Pointee *Type
}
type FnDefTy struct {
	ID   FnDefID
	Args []GenericArg
}

// FnPointerTy is a `for<binders> fn(params) -> ret` type. Params and
// Return refer to NumBinders fresh De Bruijn slots introduced by this
// type itself (debruijn depth 0 inside them names this binder), making
// fn pointers the one term former that is itself a binder.
type FnPointerTy struct {
	NumBinders int
	Safety     FnSafety
	ABI        string
	Variadic   bool
	Params     []*Type
	Return     *Type
}
type FnSafety int

const (
	FnSafetySafe FnSafety = iota
	FnSafetyUnsafe
)

type ClosureTy struct {
	ID   ClosureID
	Args []GenericArg
}
type CoroutineTy struct {
	ID   CoroutineID
	Args []GenericArg
}

// ProjectionTy is an associated-type projection `<Self as Trait<Args>>::Assoc`.
type ProjectionTy struct {
	AssocTypeID AssocTypeID
	Args        []GenericArg
}
type OpaqueTy struct {
	ID   OpaqueID
	Args []GenericArg
}

// DynTy is a `dyn Trait + ...` object: a set of quantified trait/
// projection bounds the hidden type must satisfy, plus its lifetime.
type DynTy struct {
	Bounds   []*QuantifiedWhereClause
	Lifetime *Lifetime
}
type NeverTy struct{}
type ScalarTy struct{ Kind ScalarKind }
type ErrorTy struct{}

func (BoundVarTy) isTypeData()     {}
func (InferenceVarTy) isTypeData() {}
func (PlaceholderTy) isTypeData()  {}
func (AdtTy) isTypeData()          {}
func (TupleTy) isTypeData()        {}
func (ArrayTy) isTypeData()        {}
func (SliceTy) isTypeData()        {}
func (RefTy) isTypeData()          {}
func (RawPtrTy) isTypeData()       {}
func (FnDefTy) isTypeData()        {}
func (FnPointerTy) isTypeData()    {}
func (ClosureTy) isTypeData()      {}
func (CoroutineTy) isTypeData()    {}
func (ProjectionTy) isTypeData()   {}
func (OpaqueTy) isTypeData()       {}
func (DynTy) isTypeData()          {}
func (NeverTy) isTypeData()        {}
func (ScalarTy) isTypeData()       {}
func (ErrorTy) isTypeData()        {}

// Data returns the interned payload. Callers type-switch on the result
// to inspect a Type's structure.
func (t *Type) Data() TypeData { return t.data }

func (t *Type) String() string {
	switch d := t.data.(type) {
	case BoundVarTy:
		return d.Var.String()
	case InferenceVarTy:
		return d.Var.String()
	case PlaceholderTy:
		return d.Placeholder.String()
	case AdtTy:
		return fmt.Sprintf("%s%s", d.ID, formatArgs(d.Args))
	case TupleTy:
		return fmt.Sprintf("(%d-tuple)", len(d.Elems))
	case ArrayTy:
		return fmt.Sprintf("[%s; N]", d.Elem)
	case SliceTy:
		return fmt.Sprintf("[%s]", d.Elem)
	case RefTy:
		mut := ""
		if d.Mutable {
			mut = "mut "
		}
		return fmt.Sprintf("&%s %s%s", d.Lifetime, mut, d.Referent)
	case RawPtrTy:
		return fmt.Sprintf("*%s", d.Pointee)
	case FnDefTy:
		return fmt.Sprintf("fn-def %s%s", d.ID, formatArgs(d.Args))
	case FnPointerTy:
		return "fn-pointer"
	case ClosureTy:
		return fmt.Sprintf("closure %s", d.ID)
	case CoroutineTy:
		return fmt.Sprintf("coroutine %s", d.ID)
	case ProjectionTy:
		return fmt.Sprintf("<... as ...>::%s%s", d.AssocTypeID, formatArgs(d.Args))
	case OpaqueTy:
		return fmt.Sprintf("opaque %s", d.ID)
	case DynTy:
		return "dyn"
	case NeverTy:
		return "!"
	case ScalarTy:
		return d.Kind.String()
	case ErrorTy:
		return "{error}"
	default:
		return "?ty"
	}
}

func formatArgs(args []GenericArg) string {
	if len(args) == 0 {
		return ""
	}
	s := "<"
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ">"
}

// Lifetime is an interned handle to a region term.
type Lifetime struct {
	id   uint64
	data LifetimeData
}

type LifetimeData interface{ isLifetimeData() }

type BoundVarLt struct{ Var BoundVar }
type InferenceVarLt struct{ Var InferenceVarID }
type PlaceholderLt struct{ Placeholder Placeholder }
type StaticLt struct{}
type ErasedLt struct{}

// EmptyLt is the empty region within a universe: the lifetime that
// outlives nothing, scoped so it cannot escape the universe it was
// created in.
type EmptyLt struct{ Universe UniverseIndex }
type ErrorLt struct{}

func (BoundVarLt) isLifetimeData()     {}
func (InferenceVarLt) isLifetimeData() {}
func (PlaceholderLt) isLifetimeData()  {}
func (StaticLt) isLifetimeData()       {}
func (ErasedLt) isLifetimeData()       {}
func (EmptyLt) isLifetimeData()        {}
func (ErrorLt) isLifetimeData()        {}

func (l *Lifetime) Data() LifetimeData { return l.data }

func (l *Lifetime) String() string {
	switch d := l.data.(type) {
	case BoundVarLt:
		return "'" + d.Var.String()
	case InferenceVarLt:
		return "'" + d.Var.String()
	case PlaceholderLt:
		return "'" + d.Placeholder.String()
	case StaticLt:
		return "'static"
	case ErasedLt:
		return "'erased"
	case EmptyLt:
		return fmt.Sprintf("'empty(%s)", d.Universe)
	case ErrorLt:
		return "'{error}"
	default:
		return "'?"
	}
}

// Const is an interned handle to a const-generic term.
type Const struct {
	id   uint64
	data ConstData
}

type ConstData interface{ isConstData() }

type BoundVarConst struct{ Var BoundVar }
type InferenceVarConst struct{ Var InferenceVarID }
type PlaceholderConst struct{ Placeholder Placeholder }

// ConcreteConst is a fully evaluated const value of a given type. The
// core treats Value opaquely; it is never arithmetically interpreted.
type ConcreteConst struct {
	Ty    *Type
	Value ConstValue
}
type ConstValue struct {
	Bits uint64
}

func (BoundVarConst) isConstData()   {}
func (InferenceVarConst) isConstData() {}
func (PlaceholderConst) isConstData() {}
func (ConcreteConst) isConstData()    {}

func (c *Const) Data() ConstData { return c.data }

func (c *Const) String() string {
	switch d := c.data.(type) {
	case BoundVarConst:
		return d.Var.String()
	case InferenceVarConst:
		return d.Var.String()
	case PlaceholderConst:
		return d.Placeholder.String()
	case ConcreteConst:
		return fmt.Sprintf("%d", d.Value.Bits)
	default:
		return "?const"
	}
}

// GenericArgKind tags which of Type, Lifetime or Const a GenericArg carries.
type GenericArgKind int

const (
	ArgKindTy GenericArgKind = iota
	ArgKindLifetime
	ArgKindConst
)

// GenericArg is one argument of a generic application (ADT, trait
// reference, fn signature, ...): exactly one of Ty, Lifetime or Const
// is populated, selected by Kind.
type GenericArg struct {
	Kind     GenericArgKind
	Ty       *Type
	Lifetime *Lifetime
	Const    *Const
}

func TyArg(t *Type) GenericArg             { return GenericArg{Kind: ArgKindTy, Ty: t} }
func LifetimeArg(l *Lifetime) GenericArg   { return GenericArg{Kind: ArgKindLifetime, Lifetime: l} }
func ConstArg(c *Const) GenericArg         { return GenericArg{Kind: ArgKindConst, Const: c} }

func (g GenericArg) String() string {
	switch g.Kind {
	case ArgKindTy:
		return g.Ty.String()
	case ArgKindLifetime:
		return g.Lifetime.String()
	case ArgKindConst:
		return g.Const.String()
	default:
		return "?arg"
	}
}

// ParamKind returns the ParameterKind this argument's slot expects.
func (g GenericArg) ParamKind() ParameterKind {
	switch g.Kind {
	case ArgKindTy:
		return ParamKindTy
	case ArgKindLifetime:
		return ParamKindLifetime
	default:
		return ParamKindConst
	}
}
