package ledger

// Ledger defines the root interface for the external savings ledger.
// It composes all gateway operations. Components should depend on the more
// granular interfaces (Reader, Writer, TokenReader) instead of this one.
type Ledger interface {
	Reader
	Writer
	TokenReader
}
