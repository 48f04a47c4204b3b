package registrar

import "errors"

// Every rejected operation returns one of these (wrapped with detail), and no
// state has changed when it does.
var (
	// ErrInvalidInput: empty name, years out of range, zero-length price tier,
	// value attached to a non-payable call, zero address where one is required.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotEligible: the name is unavailable, or the current phase and the
	// caller's quota do not allow minting it now.
	ErrNotEligible = errors.New("not eligible")

	// ErrInsufficientPayment: attached value is below the computed cost.
	ErrInsufficientPayment = errors.New("insufficient payment")

	// ErrUnauthorized: caller is not the controller owner.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInconsistentConfig: an address record was supplied without a resolver.
	ErrInconsistentConfig = errors.New("inconsistent config")

	// ErrTransferFailed: moving value in, refunding or paying out failed.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrLedger: a registrar, registry or resolver call failed, or the contract
	// could not be found.
	ErrLedger = errors.New("ledger call failed")

	// ErrStorage: persisting the controller state failed.
	ErrStorage = errors.New("storage failure")
)

// Reason maps an error to a short label for logs and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, ErrInsufficientPayment):
		return "insufficient_payment"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInconsistentConfig):
		return "inconsistent_config"
	case errors.Is(err, ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, ErrLedger):
		return "ledger"
	case errors.Is(err, ErrStorage):
		return "storage"
	default:
		return "other"
	}
}
