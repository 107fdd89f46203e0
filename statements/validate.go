package statements

import "fmt"

// MalformedStatementError reports a statement whose required participants
// are missing or whose shape does not fit its relation type.
type MalformedStatementError struct {
	Type   string
	Reason string
}

func (e *MalformedStatementError) Error() string {
	return fmt.Sprintf("malformed %s statement: %s", e.Type, e.Reason)
}

// Rejected pairs a statement that failed validation with the reason.
type Rejected struct {
	Statement Statement
	Err       error
}

// Ingest validates a batch of raw statements. Valid statements are
// returned in input order; invalid ones are collected with their errors
// so the caller can log or persist them. A malformed statement never
// aborts the batch.
func Ingest(stmts []Statement) (accepted []Statement, rejected []Rejected) {
	for _, s := range stmts {
		if err := s.Validate(); err != nil {
			rejected = append(rejected, Rejected{Statement: s, Err: err})
			continue
		}
		accepted = append(accepted, s)
	}
	return accepted, rejected
}
