package protocol

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Amounts shared by every party of the protocol. Each party computes its own
// sighashes over transactions built from these values, so they must never be
// overridden locally.
const (
	DustAmount btcutil.Amount = 1_000

	StakeFeeAmount     btcutil.Amount = 300
	ChallengeFeeAmount btcutil.Amount = 300
	AssertFeeAmount    btcutil.Amount = 400
	DisproveFeeAmount  btcutil.Amount = 1_000

	StakeAmount            btcutil.Amount = 3_000
	ChallengeAmount        btcutil.Amount = 1_000
	CommitteeReserveAmount btcutil.Amount = 1_000
)

// StakeValueAmount is the value carried by the stake-value output of the stake
// transaction. It funds the stake itself and the fee of the assert
// transaction that spends it.
const StakeValueAmount = StakeAmount + AssertFeeAmount

// StakeOutput is an output index of the stake transaction.
type StakeOutput uint32

const (
	StakeValueOutput      StakeOutput = 0
	UnstakeTimelockOutput StakeOutput = 1
	ConnectorAOutput      StakeOutput = 2
	ConnectorBOutput      StakeOutput = 3
	StakeChangeOutput     StakeOutput = 4

	// NumStakeOutputs is the number of outputs of a stake transaction.
	NumStakeOutputs = 5
)

// AssertOutput is an output index of the assert transaction.
type AssertOutput uint32

const (
	ConnectorCOutput AssertOutput = 1
)

// ChallengeOutput is an output index of the filled challenge transaction.
type ChallengeOutput uint32

const (
	ChallengeChangeOutput ChallengeOutput = 4
)

// OutPoint returns the outpoint of this stake output in the given stake
// transaction.
func (o StakeOutput) OutPoint(stakeTxid chainhash.Hash) wire.OutPoint {
	return wire.OutPoint{Hash: stakeTxid, Index: uint32(o)}
}

// OutPoint returns the outpoint of this assert output in the given assert
// transaction.
func (o AssertOutput) OutPoint(assertTxid chainhash.Hash) wire.OutPoint {
	return wire.OutPoint{Hash: assertTxid, Index: uint32(o)}
}

// Connectors is the named output-index schema linking the transactions of
// the protocol to each other.
type Connectors struct {
	// StakeValue feeds the assert transaction together with ConnectorB.
	StakeValue StakeOutput

	// UnstakeTimelock is reserved for the validator's exit path. It
	// currently carries no timelock.
	UnstakeTimelock StakeOutput

	// ConnectorA feeds the challenge transaction.
	ConnectorA StakeOutput

	// ConnectorB feeds the assert transaction.
	ConnectorB StakeOutput

	// StakeChange returns the rest of the funding input to the staker.
	StakeChange StakeOutput

	// ConnectorC is the assert transaction output feeding the disprove
	// transaction.
	ConnectorC AssertOutput

	// ChallengeChange is the challenger's change output in the filled
	// challenge transaction.
	ChallengeChange ChallengeOutput
}

// Schema returns the connector schema used by every party.
func Schema() Connectors {
	return Connectors{
		StakeValue:      StakeValueOutput,
		UnstakeTimelock: UnstakeTimelockOutput,
		ConnectorA:      ConnectorAOutput,
		ConnectorB:      ConnectorBOutput,
		StakeChange:     StakeChangeOutput,
		ConnectorC:      ConnectorCOutput,
		ChallengeChange: ChallengeChangeOutput,
	}
}

// StakeTxCost is the amount a funding input must at least carry to pay for a
// stake transaction, not counting change.
func StakeTxCost() btcutil.Amount {
	return StakeFeeAmount + StakeAmount + AssertFeeAmount + 3*DustAmount
}

// ChallengeCost is the amount a challenger's funding input must at least carry
// to fill a challenge transaction.
func ChallengeCost() btcutil.Amount {
	return ChallengeFeeAmount + ChallengeAmount
}
