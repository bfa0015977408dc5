package txn

import (
	"errors"
	"fmt"
)

// TxError reports that a transaction failed and was rolled back.
//
// Index is the position of the failing statement. A failure to begin the
// transaction reports Index 0; a failure to commit reports Index equal to
// the number of statements. In every case no statement's effect is visible.
type TxError struct {
	Index int
	Cause error
}

// Error implements the error interface.
func (e *TxError) Error() string {
	return fmt.Sprintf("transaction failed at statement %d: %v", e.Index, e.Cause)
}

func (e *TxError) Unwrap() error { return e.Cause }

// IsTxError returns true if err is or wraps a *TxError.
func IsTxError(err error) bool {
	var te *TxError
	return errors.As(err, &te)
}
