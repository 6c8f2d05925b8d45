package domain

// RefKind names an external entity directory.
type RefKind string

const (
	RefSupplier RefKind = "supplier"
	RefCustomer RefKind = "customer"
	RefEmployee RefKind = "employee"
)

// RefKindForType returns the directory an entity account type points at.
// The second return is false for system types.
func RefKindForType(t AccountType) (RefKind, bool) {
	switch t {
	case Supplier:
		return RefSupplier, true
	case Customer:
		return RefCustomer, true
	case Employee:
		return RefEmployee, true
	}
	return "", false
}

// Reference is the resolved link between an account and its external entity.
// System accounts resolve to the zero Reference with System set.
type Reference struct {
	System bool
	Kind   RefKind
	RefID  string
}

// SystemReference is the sentinel "no reference" marker for system accounts.
func SystemReference() Reference {
	return Reference{System: true}
}
