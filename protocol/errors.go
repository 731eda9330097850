package protocol

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
)

var (
	// ErrInvalidPrivateKey is returned if a private key string is neither
	// a WIF nor an extended private key.
	ErrInvalidPrivateKey = errors.New("invalid private key")

	// ErrInsufficientFunds is matched by every InsufficientFundsError.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrVerificationFailed signals that a signature we just produced
	// does not verify. This is always an internal defect.
	ErrVerificationFailed = errors.New("signature verification failed")

	// ErrKeyMismatch is returned if a funding output is not locked to the
	// key that is asked to spend it.
	ErrKeyMismatch = errors.New("funding output does not belong to " +
		"signing key")

	// ErrUnsupportedNetwork is returned for a network name that has no
	// chain parameters.
	ErrUnsupportedNetwork = errors.New("unsupported network")

	// ErrInvalidTxHex is returned if a transaction string is not hex or
	// does not deserialize.
	ErrInvalidTxHex = errors.New("invalid transaction hex")

	// ErrCircuitNotExists is returned if a verifying key file is missing.
	ErrCircuitNotExists = errors.New("circuit verifying key not found")

	// ErrInvalidCircuitType is returned for an unknown proof system name.
	ErrInvalidCircuitType = errors.New("invalid circuit type")

	// ErrInvalidStatus is returned for an unknown status name or value.
	ErrInvalidStatus = errors.New("invalid status")
)

// InsufficientFundsError is returned when a fee or change computation would
// underflow.
type InsufficientFundsError struct {
	Available btcutil.Amount
	Required  btcutil.Amount
}

// Shortfall is the amount missing to satisfy the requirement.
func (e *InsufficientFundsError) Shortfall() btcutil.Amount {
	return e.Required - e.Available
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: have %v, need %v (short by %v)",
		e.Available, e.Required, e.Shortfall())
}

// Is makes errors.Is(err, ErrInsufficientFunds) match.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// CheckedSub returns available-required or an InsufficientFundsError if that
// would be negative.
func CheckedSub(available, required btcutil.Amount) (btcutil.Amount, error) {
	if available < required {
		return 0, &InsufficientFundsError{
			Available: available,
			Required:  required,
		}
	}

	return available - required, nil
}

// ShapeViolation enumerates the ways a counterparty transaction can deviate
// from the layout a protocol stage expects.
type ShapeViolation uint8

const (
	InvalidVersion ShapeViolation = iota
	InvalidLockTime
	InvalidSequence
	MissingInput
	InvalidPreviousOutput
	OutputNotEmpty
	InvalidInputCount
	NotSegwitTx
	InvalidWitnessCount
	WitnessInvalidScriptPubKey
	RecoverSignatureFailed
	VerifySignatureFailed
	MissingOutput
	InvalidStakeValue
	InvalidConnectorValue
	InvalidScriptPubKey
	InvalidOutputCount
)

var shapeViolationText = map[ShapeViolation]string{
	InvalidVersion:             "has invalid version",
	InvalidLockTime:            "has invalid locktime",
	InvalidSequence:            "has invalid sequence",
	MissingInput:               "misses input",
	InvalidPreviousOutput:      "has invalid previous output",
	OutputNotEmpty:             "output not empty",
	InvalidInputCount:          "has invalid input count",
	NotSegwitTx:                "is not segwit transaction",
	InvalidWitnessCount:        "has invalid witness count",
	WitnessInvalidScriptPubKey: "witness has invalid script pubkey",
	RecoverSignatureFailed:     "failed to recover register's signature",
	VerifySignatureFailed:      "failed to verify register's signature",
	MissingOutput:              "misses output",
	InvalidStakeValue:          "has invalid stake value",
	InvalidConnectorValue:      "has invalid connector value",
	InvalidScriptPubKey:        "has invalid output script pubkey",
	InvalidOutputCount:         "has invalid output count",
}

func (v ShapeViolation) String() string {
	if s, ok := shapeViolationText[v]; ok {
		return s
	}

	return fmt.Sprintf("unknown violation %d", uint8(v))
}

// ShapeError describes why a transaction supplied by another party was
// rejected.
type ShapeError struct {
	Tx     TransactionType
	Kind   ShapeViolation
	Detail string
}

// NewShapeError creates a ShapeError with a formatted detail message.
func NewShapeError(tx TransactionType, kind ShapeViolation,
	format string, args ...interface{}) *ShapeError {

	return &ShapeError{
		Tx:     tx,
		Kind:   kind,
		Detail: fmt.Sprintf(format, args...),
	}
}

func (e *ShapeError) Error() string {
	// The transaction type names are snake_case on the wire, the
	// diagnostics read "assert tx has invalid version 2".
	name := e.Tx.Label()
	if e.Detail == "" {
		return fmt.Sprintf("%s %v", name, e.Kind)
	}

	if e.Kind == WitnessInvalidScriptPubKey {
		return fmt.Sprintf("%s's %v %s", name, e.Kind, e.Detail)
	}

	return fmt.Sprintf("%s %v %s", name, e.Kind, e.Detail)
}

// IsShapeViolation reports whether err is a ShapeError of the given kind.
func IsShapeViolation(err error, kind ShapeViolation) bool {
	var shapeErr *ShapeError
	return errors.As(err, &shapeErr) && shapeErr.Kind == kind
}
