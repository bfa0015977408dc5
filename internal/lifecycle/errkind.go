package lifecycle

import (
	"context"
	"errors"

	"github.com/roach88/mealdb/internal/schema"
	"github.com/roach88/mealdb/internal/store"
	"github.com/roach88/mealdb/internal/txn"
)

// Error kinds, as reported by ErrorKind.
const (
	KindBusy     = "busy"
	KindOpen     = "open"
	KindClose    = "close"
	KindDelete   = "delete"
	KindMissing  = "missing"
	KindCorrupt  = "corrupt"
	KindSchema   = "schema"
	KindTx       = "tx"
	KindCanceled = "canceled"
	KindOther    = "other"
)

var errorKinds = []string{
	KindBusy, KindOpen, KindClose, KindDelete, KindMissing,
	KindCorrupt, KindSchema, KindTx, KindCanceled, KindOther,
}

// IsErrorKind reports whether s is one of the kinds ErrorKind returns.
func IsErrorKind(s string) bool {
	for _, k := range errorKinds {
		if k == s {
			return true
		}
	}
	return false
}

// ErrorKind names the category of err. Order matters: the outermost
// lifecycle and store wrappers are checked before what they wrap.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsBusy(err):
		return KindBusy
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case store.IsOpenError(err):
		return KindOpen
	case store.IsDeleteError(err):
		return KindDelete
	case store.IsCloseError(err):
		return KindClose
	case schema.IsMissing(err):
		return KindMissing
	case schema.IsCorrupt(err):
		return KindCorrupt
	case schema.IsSchemaError(err):
		return KindSchema
	case txn.IsTxError(err):
		return KindTx
	default:
		return KindOther
	}
}
