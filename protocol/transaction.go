package protocol

import (
	"fmt"
	"strings"
)

// TransactionType identifies the protocol stage a transaction belongs to.
// The numeric values are the committee's storage codes.
type TransactionType uint8

const (
	StakeTx TransactionType = iota
	ChallengeTx
	AssertTx
	DisproveTx
)

var transactionTypeNames = &enumNames{
	kind:    "transaction type",
	wire:    []string{"stake_tx", "challenge_tx", "assert_tx", "disprove_tx"},
	variant: []string{"StakeTx", "ChallengeTx", "AssertTx", "DisproveTx"},
}

func (t TransactionType) String() string {
	return transactionTypeNames.name(int(t))
}

// Label is the human readable name used in diagnostics, e.g. "assert tx".
func (t TransactionType) Label() string {
	return strings.ReplaceAll(t.String(), "_", " ")
}

// TransactionTypeFromInt converts a storage code into a TransactionType.
func TransactionTypeFromInt(v int) (TransactionType, error) {
	if v < int(StakeTx) || v > int(DisproveTx) {
		return 0, fmt.Errorf("invalid value %d for transaction type", v)
	}

	return TransactionType(v), nil
}

// ParseTransactionType parses either spelling of a transaction type.
func ParseTransactionType(s string) (TransactionType, error) {
	i, err := transactionTypeNames.parse(s)
	return TransactionType(i), err
}

func (t TransactionType) MarshalJSON() ([]byte, error) {
	return transactionTypeNames.marshal(int(t))
}

func (t *TransactionType) UnmarshalJSON(data []byte) error {
	i, err := transactionTypeNames.unmarshal(data)
	if err != nil {
		return err
	}
	*t = TransactionType(i)

	return nil
}

// TransactionStatus is the committee's broadcast state of a transaction.
type TransactionStatus uint8

const (
	TxToBeChecked TransactionStatus = iota
	TxToBeSubmitted
	TxSubmitted
	TxConfirmed
	TxInvalid
	TxFailed
)

var transactionStatusNames = &enumNames{
	kind: "transaction status",
	wire: []string{
		"to_be_checked", "to_be_submitted", "submitted", "confirmed",
		"invalid", "failed",
	},
	variant: []string{
		"ToBeChecked", "ToBeSubmitted", "Submitted", "Confirmed",
		"Invalid", "Failed",
	},
}

func (s TransactionStatus) String() string {
	return transactionStatusNames.name(int(s))
}

// ParseTransactionStatus parses either spelling of a transaction status.
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	i, err := transactionStatusNames.parse(s)
	return TransactionStatus(i), err
}

// IsFinal reports whether the status can no longer change.
func (s TransactionStatus) IsFinal() bool {
	return s == TxConfirmed || s == TxInvalid || s == TxFailed
}
