/*
errors.go - Sentinel errors for the installment engine

ERROR CATEGORIES:
  1. Not-found errors - a reference did not resolve, or resolved to an
     entity the claimed owner does not own. Both cases look identical to
     the caller on purpose.
  2. Internal errors - a persistence invariant was violated (a save that
     yielded no identifier, a delete that silently no-oped).

The engine never retries. Precondition failures surface immediately; the
calling layer maps them to user-facing responses with IsNotFound.
*/
package installment

import "errors"

var (
	// ErrUserNotFound is returned when the claimed owner does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrBankNotFound is returned when a bank reference does not resolve
	// for the claimed owner.
	ErrBankNotFound = errors.New("bank not found")

	// ErrBudgetNotFound is returned when a budget reference does not
	// resolve for the claimed owner.
	ErrBudgetNotFound = errors.New("budget not found")

	// ErrCardNotFound is returned when a card reference does not resolve
	// for the claimed owner.
	ErrCardNotFound = errors.New("card not found")

	// ErrInstallmentNotFound is returned when an installment reference does
	// not resolve for the claimed owner.
	ErrInstallmentNotFound = errors.New("installment not found")

	// ErrSaveFailed is returned when persistence violated an invariant:
	// an insert that produced no identifier, or a delete that left the row
	// behind. The budget reconciliation step must never silently skip.
	ErrSaveFailed = errors.New("persistence did not take effect")
)

// IsNotFound reports whether the error is any of the reference-resolution
// failures.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrBankNotFound) ||
		errors.Is(err, ErrBudgetNotFound) ||
		errors.Is(err, ErrCardNotFound) ||
		errors.Is(err, ErrInstallmentNotFound)
}

// IsInternal reports whether the error is a persistence invariant violation.
func IsInternal(err error) bool {
	return errors.Is(err, ErrSaveFailed)
}
