package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/mealdb/internal/schema"
	"github.com/roach88/mealdb/internal/store"
	"github.com/roach88/mealdb/internal/txn"
)

func TestErrorKind(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&BusyError{Op: "open_and_run"}, KindBusy},
		{context.Canceled, KindCanceled},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), KindCanceled},
		{&store.OpenError{Name: "x", Err: cause}, KindOpen},
		{&store.CloseError{Name: "x", Err: cause}, KindClose},
		{&store.DeleteError{Name: "x", Err: cause}, KindDelete},
		{&schema.ProbeError{Result: schema.Missing, Err: cause}, KindMissing},
		{&schema.ProbeError{Result: schema.Corrupt, Err: &txn.TxError{Cause: cause}}, KindCorrupt},
		{&schema.SchemaError{Reason: "negative"}, KindSchema},
		{fmt.Errorf("create and seed: %w", &txn.TxError{Index: 3, Cause: cause}), KindTx},
		{cause, KindOther},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.err), func(t *testing.T) {
			kind := ErrorKind(tt.err)
			assert.Equal(t, tt.want, kind)
			if kind != "" {
				assert.True(t, IsErrorKind(kind))
			}
		})
	}
}

func TestIsErrorKind_Unknown(t *testing.T) {
	assert.False(t, IsErrorKind(""))
	assert.False(t, IsErrorKind("timeout"))
}
