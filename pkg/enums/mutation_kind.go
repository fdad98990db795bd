package enums

import "fmt"

// MutationKind enumerates the write operations the console performs against a resource.
type MutationKind string

const (
	MutationKindCreate MutationKind = "create"
	MutationKindUpdate MutationKind = "update"
	MutationKindDelete MutationKind = "delete"
)

var validMutationKinds = []MutationKind{
	MutationKindCreate,
	MutationKindUpdate,
	MutationKindDelete,
}

// String implements fmt.Stringer.
func (m MutationKind) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MutationKind.
func (m MutationKind) IsValid() bool {
	for _, candidate := range validMutationKinds {
		if candidate == m {
			return true
		}
	}
	return false
}

// RequiresConfirmation reports whether the kind is destructive and needs an explicit yes.
func (m MutationKind) RequiresConfirmation() bool {
	return m == MutationKindDelete
}

// ParseMutationKind converts raw input into a MutationKind.
func ParseMutationKind(value string) (MutationKind, error) {
	for _, candidate := range validMutationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid mutation kind %q", value)
}
