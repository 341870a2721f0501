package updater

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/pkwatch/pkwatch/pkg/transaction"
)

// ErrEulaDeclined fails the original install when a queued license agreement
// is declined; the remaining queue is drained without acceptance.
var ErrEulaDeclined = errors.New("license agreement declined")

// IsEulaDeclined reports whether err is an abandoned-by-decline failure.
func IsEulaDeclined(err error) bool {
	return errors.Cause(err) == ErrEulaDeclined
}

// TransactionError is a classified asynchronous failure surfaced to the
// consumer. Raw transport errors never escape without this wrapping.
type TransactionError struct {
	Role    transaction.Role
	Code    transaction.Error
	Details string
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s transaction failed: %s: %s", e.Role, e.Code, e.Details)
}

// AsTransactionError unwraps err to a TransactionError when it is one.
func AsTransactionError(err error) (*TransactionError, bool) {
	te, ok := errors.Cause(err).(*TransactionError)
	return te, ok
}
