package output

// Role names what a piece of text means, independent of how it is styled.
type Role int

const (
	RoleSuccess Role = iota
	RoleFailure
	RoleIgnored
	RoleSecondary
)

// Palette styles text for a role. Implementations must style each line of a
// multi-line string separately and must not add or remove lines, so callers
// can indent styled blocks line by line.
type Palette interface {
	Style(role Role, text string) string
}

// Plain is a Palette that applies no styling.
type Plain struct{}

// Style returns text unchanged.
func (Plain) Style(_ Role, text string) string { return text }
