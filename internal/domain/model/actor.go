package model

// Actor identifies who performs a mutation: the operator from the identity
// provider and the terminal used as lease holder.
type Actor struct {
	OperatorID int64
	TerminalID string
}

// Identified reports whether the operator is known.
func (a Actor) Identified() bool {
	return a.OperatorID > 0
}
