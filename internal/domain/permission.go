package domain

// Capability is a single permission flag.
type Capability int

const (
	CapView Capability = iota
	CapAdd
	CapUpdate
	CapDelete
	CapPrint
)

var capabilityNames = [...]string{"view", "add", "update", "delete", "print"}

func (c Capability) String() string {
	if c < 0 || int(c) >= len(capabilityNames) {
		return "unknown"
	}
	return capabilityNames[c]
}

// Capabilities lists every capability in display order.
func Capabilities() []Capability {
	return []Capability{CapView, CapAdd, CapUpdate, CapDelete, CapPrint}
}

// Permissions is the complete capability set of one user for one entity.
// The zero value denies everything.
type Permissions struct {
	View   bool `json:"view"`
	Add    bool `json:"add"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
	Print  bool `json:"print"`
}

// AllPermissions grants every capability.
func AllPermissions() Permissions {
	return Permissions{View: true, Add: true, Update: true, Delete: true, Print: true}
}

// Allows reports whether c is granted.
func (p Permissions) Allows(c Capability) bool {
	switch c {
	case CapView:
		return p.View
	case CapAdd:
		return p.Add
	case CapUpdate:
		return p.Update
	case CapDelete:
		return p.Delete
	case CapPrint:
		return p.Print
	}
	return false
}

// With returns a copy of p with c set to granted.
func (p Permissions) With(c Capability, granted bool) Permissions {
	switch c {
	case CapView:
		p.View = granted
	case CapAdd:
		p.Add = granted
	case CapUpdate:
		p.Update = granted
	case CapDelete:
		p.Delete = granted
	case CapPrint:
		p.Print = granted
	}
	return p
}
