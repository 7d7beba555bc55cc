package bound

import "fmt"

// Access describes how an expression's value or reference is consumed at
// its use site.
type Access uint8

const (
	// AccessNone discards the value (expression statement).
	AccessNone Access = iota
	// AccessRead consumes the value.
	AccessRead
	// AccessWrite replaces the value.
	AccessWrite
	// AccessReadAndWrite reads then writes back (compound assignment).
	AccessReadAndWrite
	// AccessReadRef takes an alias for reading.
	AccessReadRef
	// AccessWriteRef takes an alias for writing.
	AccessWriteRef
	// AccessReadUnknown is an argument whose formal parameter's
	// by-ref-ness is not known yet.
	AccessReadUnknown
	// AccessWriteAndReadRef writes the value, then passes it by reference
	// to the same call: f($a = $b) where f(&$x).
	AccessWriteAndReadRef
	// AccessWriteAndReadUnknown is AccessWriteAndReadRef before the formal
	// parameter is known.
	AccessWriteAndReadUnknown
	// AccessReadAndWriteAndReadRef is a compound-assignment target that is
	// also passed by reference: f($a += $b) where f(&$x).
	AccessReadAndWriteAndReadRef
	// AccessReadAndWriteAndReadUnknown is AccessReadAndWriteAndReadRef
	// before the formal parameter is known.
	AccessReadAndWriteAndReadUnknown

	accessCount
)

var accessNames = [...]string{
	AccessNone:                       "None",
	AccessRead:                       "Read",
	AccessWrite:                      "Write",
	AccessReadAndWrite:               "ReadAndWrite",
	AccessReadRef:                    "ReadRef",
	AccessWriteRef:                   "WriteRef",
	AccessReadUnknown:                "ReadUnknown",
	AccessWriteAndReadRef:            "WriteAndReadRef",
	AccessWriteAndReadUnknown:        "WriteAndReadUnknown",
	AccessReadAndWriteAndReadRef:     "ReadAndWriteAndReadRef",
	AccessReadAndWriteAndReadUnknown: "ReadAndWriteAndReadUnknown",
}

func (a Access) String() string {
	if a < accessCount {
		return accessNames[a]
	}
	return fmt.Sprintf("Access(%d)", uint8(a))
}

// AllAccesses lists every access mode in declaration order.
func AllAccesses() []Access {
	out := make([]Access, 0, accessCount)
	for a := AccessNone; a < accessCount; a++ {
		out = append(out, a)
	}
	return out
}

// access flags answer the three orthogonal questions an access mode encodes.
const (
	flagRead     = 1 << iota // value consumed
	flagWrite                // value replaced
	flagReadRef              // alias taken for read
	flagWriteRef             // alias taken for write
	flagUnknown              // by-ref-ness of the consuming parameter unknown
)

var accessFlags = [...]uint8{
	AccessNone:                       0,
	AccessRead:                       flagRead,
	AccessWrite:                      flagWrite,
	AccessReadAndWrite:               flagRead | flagWrite,
	AccessReadRef:                    flagReadRef,
	AccessWriteRef:                   flagWriteRef,
	AccessReadUnknown:                flagUnknown,
	AccessWriteAndReadRef:            flagWrite | flagReadRef,
	AccessWriteAndReadUnknown:        flagWrite | flagUnknown,
	AccessReadAndWriteAndReadRef:     flagRead | flagWrite | flagReadRef,
	AccessReadAndWriteAndReadUnknown: flagRead | flagWrite | flagUnknown,
}

func (a Access) flags() uint8 {
	if a < accessCount {
		return accessFlags[a]
	}
	return 0
}

// IsValid reports whether a is one of the declared access modes.
func (a Access) IsValid() bool { return a < accessCount }

// IsNone reports whether the value is discarded.
func (a Access) IsNone() bool { return a == AccessNone }

// IsRead reports whether the value is consumed by value.
func (a Access) IsRead() bool { return a.flags()&flagRead != 0 }

// IsWrite reports whether the value is replaced, by value or through an
// alias.
func (a Access) IsWrite() bool { return a.flags()&(flagWrite|flagWriteRef) != 0 }

// IsReadRef reports whether an alias is taken for reading.
func (a Access) IsReadRef() bool { return a.flags()&flagReadRef != 0 }

// IsWriteRef reports whether an alias is taken for writing.
func (a Access) IsWriteRef() bool { return a.flags()&flagWriteRef != 0 }

// IsUnknown reports whether the access still depends on an unresolved
// formal parameter.
func (a Access) IsUnknown() bool { return a.flags()&flagUnknown != 0 }

// IsCompound reports whether a is the read-modify-write family used by
// compound assignment and increment targets.
func (a Access) IsCompound() bool {
	return a == AccessReadAndWrite || a == AccessReadAndWriteAndReadRef || a == AccessReadAndWriteAndReadUnknown
}

// IsAssignTarget reports whether a is legal on the target of a plain
// assignment.
func (a Access) IsAssignTarget() bool {
	switch a {
	case AccessWrite, AccessWriteRef, AccessWriteAndReadRef, AccessWriteAndReadUnknown:
		return true
	}
	return false
}

// Narrow returns the known variant corresponding to an unknown access,
// once the consuming parameter's by-ref-ness is known. It fails for access
// modes that are already known.
func (a Access) Narrow(byRef bool) (Access, error) {
	switch a {
	case AccessReadUnknown:
		if byRef {
			return AccessReadRef, nil
		}
		return AccessRead, nil
	case AccessWriteAndReadUnknown:
		if byRef {
			return AccessWriteAndReadRef, nil
		}
		return AccessWrite, nil
	case AccessReadAndWriteAndReadUnknown:
		if byRef {
			return AccessReadAndWriteAndReadRef, nil
		}
		return AccessReadAndWrite, nil
	}
	return a, fmt.Errorf("access %s is not an unknown-arity variant", a)
}

// accessSet is a bit set of legal access modes.
type accessSet uint16

func setOf(modes ...Access) accessSet {
	var s accessSet
	for _, m := range modes {
		s |= 1 << m
	}
	return s
}

func (s accessSet) has(a Access) bool { return a < accessCount && s&(1<<a) != 0 }

func (s accessSet) list() []Access {
	var out []Access
	for a := AccessNone; a < accessCount; a++ {
		if s.has(a) {
			out = append(out, a)
		}
	}
	return out
}

var (
	valueAccess     = setOf(AccessNone, AccessRead)
	referenceAccess = setOf(AllAccesses()...)
	callAccess      = setOf(AccessNone, AccessRead, AccessReadRef)
	newAccess       = setOf(AccessNone, AccessRead, AccessReadRef, AccessReadUnknown)
)

// legalAccess returns the access modes legal on a node kind. Call nodes
// are further split by form.
func legalAccess(k Kind, form CallForm) accessSet {
	switch k {
	case KindLocalReference:
		return referenceAccess
	case KindInvocation:
		switch form {
		case CallFunction:
			return callAccess
		case CallNew:
			return newAccess
		default:
			return valueAccess
		}
	default:
		return valueAccess
	}
}

// LegalAccess lists the access modes a node of kind k (and call form, for
// invocations) may be constructed with.
func LegalAccess(k Kind, form CallForm) []Access {
	return legalAccess(k, form).list()
}
