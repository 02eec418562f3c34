package dbhooks

import (
	"fmt"
	"strings"
)

// Operation is the kind of query verb the underlying executor performs.
type Operation string

const (
	FindUnique        Operation = "findUnique"
	FindUniqueOrThrow Operation = "findUniqueOrThrow"
	FindFirst         Operation = "findFirst"
	FindFirstOrThrow  Operation = "findFirstOrThrow"
	FindMany          Operation = "findMany"
	Create            Operation = "create"
	CreateMany        Operation = "createMany"
	Delete            Operation = "delete"
	Update            Operation = "update"
	DeleteMany        Operation = "deleteMany"
	UpdateMany        Operation = "updateMany"
	Upsert            Operation = "upsert"
	Aggregate         Operation = "aggregate"
	GroupBy           Operation = "groupBy"
	Count             Operation = "count"

	// AllOperations is the wildcard for global registrations. It is never a valid operation to execute.
	AllOperations Operation = "*"
)

var allOperations = []Operation{
	FindUnique,
	FindUniqueOrThrow,
	FindFirst,
	FindFirstOrThrow,
	FindMany,
	Create,
	CreateMany,
	Delete,
	Update,
	DeleteMany,
	UpdateMany,
	Upsert,
	Aggregate,
	GroupBy,
	Count,
}

// Operations returns the closed set of executable operations in declaration order.
func Operations() []Operation {
	return append([]Operation(nil), allOperations...)
}

// ParseOperation converts a string into a known Operation.
func ParseOperation(s string) (Operation, error) {
	for _, op := range allOperations {
		if string(op) == s {
			return op, nil
		}
	}

	return "", ErrUnknownOperation
}

// IsValid reports whether the operation is one of the executable operations (the wildcard is not).
func (o Operation) IsValid() bool {
	_, err := ParseOperation(string(o))
	return err == nil
}

// String implements fmt.Stringer.
func (o Operation) String() string {
	return string(o)
}

// Phase determines which side of the underlying execution an event or key refers to.
type Phase string

const (
	Before Phase = "before"
	After  Phase = "after"
)

const (
	keyPrefix    = "db"
	keySeparator = ":"
)

// IsValid reports whether the phase is Before or After.
func (p Phase) IsValid() bool {
	return p == Before || p == After
}

// validateRegistration rejects operations that can never be dispatched to a registration.
// The wildcard is only meaningful for global registrations.
func validateRegistration(operation Operation, wildcardAllowed bool) error {
	switch {
	case operation.IsValid():
		return nil
	case operation == AllOperations && wildcardAllowed:
		return nil
	case operation == AllOperations:
		return ErrWildcardNotAllowed
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperation, operation)
	}
}

// Key returns the dispatch key for a model, operation and phase.
//
// The format is "db:<phase>:<operation>:<model>". For valid phases and operations, which never
// contain the separator, the model is the unbounded suffix and distinct triples never collide.
// Registrations reject other operations, so every key they build has this property.
func Key(model string, operation Operation, phase Phase) string {
	return keyPrefix + keySeparator + string(phase) + keySeparator + string(operation) + keySeparator + model
}

// PhaseOfKey extracts the phase from a key built by Key.
func PhaseOfKey(key string) (Phase, bool) {
	rest, found := strings.CutPrefix(key, keyPrefix+keySeparator)
	if !found {
		return "", false
	}

	phase, _, found := strings.Cut(rest, keySeparator)
	if !found {
		return "", false
	}

	switch Phase(phase) {
	case Before, After:
		return Phase(phase), true
	default:
		return "", false
	}
}
