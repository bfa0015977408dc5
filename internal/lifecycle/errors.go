package lifecycle

import (
	"errors"
	"fmt"
)

// ErrBusy is matched (via errors.Is) by every *BusyError.
var ErrBusy = errors.New("lifecycle operation already in flight")

// BusyError rejects an operation that would interleave with a run in flight.
type BusyError struct {
	Op string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, ErrBusy)
}

func (e *BusyError) Unwrap() error { return ErrBusy }

// IsBusy returns true if err is or wraps a *BusyError.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}
