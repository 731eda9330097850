package txbuilder

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/fiamma-chain/fcli/protocol"
	"github.com/lightningnetwork/lnd/input"
)

// ValidateStakeTx checks that a stake transaction pays the protocol amounts
// to the committee at the expected output indices.
func ValidateStakeTx(tx *wire.MsgTx, committeePkScript []byte) error {
	if tx.Version != keySpendTxVersion {
		return protocol.NewShapeError(
			protocol.StakeTx, protocol.InvalidVersion, "%d",
			tx.Version,
		)
	}
	if tx.LockTime != 0 {
		return protocol.NewShapeError(
			protocol.StakeTx, protocol.InvalidLockTime, "%d",
			tx.LockTime,
		)
	}
	if len(tx.TxOut) < protocol.NumStakeOutputs {
		return protocol.NewShapeError(
			protocol.StakeTx, protocol.MissingOutput, "",
		)
	}

	stakeValue := tx.TxOut[protocol.StakeValueOutput].Value
	if stakeValue != int64(protocol.StakeValueAmount) {
		return protocol.NewShapeError(
			protocol.StakeTx, protocol.InvalidStakeValue, "%d",
			stakeValue,
		)
	}

	connectors := []protocol.StakeOutput{
		protocol.UnstakeTimelockOutput, protocol.ConnectorAOutput,
		protocol.ConnectorBOutput,
	}
	for _, idx := range connectors {
		if tx.TxOut[idx].Value != int64(protocol.DustAmount) {
			return protocol.NewShapeError(
				protocol.StakeTx, protocol.InvalidConnectorValue,
				"%d", tx.TxOut[idx].Value,
			)
		}
	}

	committeeOutputs := append(
		[]protocol.StakeOutput{protocol.StakeValueOutput},
		connectors...,
	)
	for _, idx := range committeeOutputs {
		pkScript := tx.TxOut[idx].PkScript
		if !bytes.Equal(pkScript, committeePkScript) {
			return protocol.NewShapeError(
				protocol.StakeTx, protocol.InvalidScriptPubKey,
				"%x", pkScript,
			)
		}
	}

	return nil
}

// PresignedRules describes what a partial commitment transaction of a given
// stage must look like. Zero values skip the respective check.
type PresignedRules struct {
	Tx protocol.TransactionType

	// PrevOuts are the expected inputs in order.
	PrevOuts []wire.OutPoint

	// InputCount is checked when PrevOuts is not set.
	InputCount int

	// AllowOutputs accepts transactions the committee already added
	// outputs to.
	AllowOutputs bool

	// RequiredOutputs is the minimum number of outputs.
	RequiredOutputs int

	// WitnessItems is the exact witness stack size of every input.
	WitnessItems int

	// WitnessScript, if set, must be the last witness item of every
	// input covered by PrevOuts or InputCount.
	WitnessScript []byte

	// SignerKey and PrevValues enable verification of the first witness
	// item of every input as a signature of SignerKey.
	SignerKey  *btcec.PublicKey
	PrevValues []btcutil.Amount
}

// ValidatePresignedTx checks a partial commitment transaction against the
// given rules. The first violation found is returned as a ShapeError.
func ValidatePresignedTx(tx *wire.MsgTx, rules *PresignedRules) error {
	shapeErr := func(kind protocol.ShapeViolation, format string,
		args ...interface{}) error {

		return protocol.NewShapeError(rules.Tx, kind, format, args...)
	}

	if tx.Version != partialTxVersion {
		return shapeErr(protocol.InvalidVersion, "%d", tx.Version)
	}
	if tx.LockTime != 0 {
		return shapeErr(protocol.InvalidLockTime, "%d", tx.LockTime)
	}
	if len(tx.TxIn) == 0 {
		return shapeErr(protocol.MissingInput, "")
	}

	numInputs := rules.InputCount
	if len(rules.PrevOuts) > 0 {
		numInputs = len(rules.PrevOuts)
	}
	if numInputs > 0 && len(tx.TxIn) != numInputs {
		return shapeErr(protocol.InvalidInputCount, "%d", len(tx.TxIn))
	}

	for idx, op := range rules.PrevOuts {
		prev := tx.TxIn[idx].PreviousOutPoint
		if prev != op {
			return shapeErr(
				protocol.InvalidPreviousOutput,
				", txid %v, vout %d", prev.Hash, prev.Index,
			)
		}
	}

	for _, txIn := range tx.TxIn {
		if txIn.Sequence != wire.MaxTxInSequenceNum {
			return shapeErr(
				protocol.InvalidSequence, "%d", txIn.Sequence,
			)
		}
	}

	if !rules.AllowOutputs && len(tx.TxOut) > 0 {
		return shapeErr(protocol.OutputNotEmpty, "")
	}
	if len(tx.TxOut) < rules.RequiredOutputs {
		return shapeErr(protocol.MissingOutput, "%d", len(tx.TxOut))
	}

	if !tx.HasWitness() {
		return shapeErr(protocol.NotSegwitTx, "")
	}

	for idx := 0; idx < numInputs; idx++ {
		if err := validateWitness(tx, idx, rules, shapeErr); err != nil {
			return err
		}
	}

	return nil
}

func validateWitness(tx *wire.MsgTx, idx int, rules *PresignedRules,
	shapeErr func(protocol.ShapeViolation, string, ...interface{}) error) error {

	witness := tx.TxIn[idx].Witness
	if rules.WitnessItems > 0 && len(witness) != rules.WitnessItems {
		return shapeErr(protocol.InvalidWitnessCount, "%d", len(witness))
	}
	if len(witness) == 0 {
		return shapeErr(protocol.InvalidWitnessCount, "0")
	}

	if len(rules.WitnessScript) > 0 {
		script := witness[len(witness)-1]
		if !bytes.Equal(script, rules.WitnessScript) {
			pkScript, err := input.WitnessScriptHash(script)
			if err != nil {
				pkScript = script
			}

			return shapeErr(
				protocol.WitnessInvalidScriptPubKey, "%x",
				pkScript,
			)
		}
	}

	if rules.SignerKey == nil || idx >= len(rules.PrevValues) {
		return nil
	}

	if _, _, err := parseWitnessSig(witness[0]); err != nil {
		return shapeErr(protocol.RecoverSignatureFailed, "%v", err)
	}

	err := VerifyPartialSignature(
		tx, idx, rules.PrevValues[idx], rules.WitnessScript,
		rules.SignerKey,
	)
	if err != nil {
		return shapeErr(protocol.VerifySignatureFailed, "%v", err)
	}

	return nil
}

// AssertRules returns the rules for a validator-signed assert transaction
// spending the given stake transaction.
func AssertRules(stakeTxid chainhash.Hash, witnessScript []byte,
	signerKey *btcec.PublicKey) *PresignedRules {

	s := protocol.Schema()
	return &PresignedRules{
		Tx: protocol.AssertTx,
		PrevOuts: []wire.OutPoint{
			s.StakeValue.OutPoint(stakeTxid),
			s.ConnectorB.OutPoint(stakeTxid),
		},
		WitnessItems:  2,
		WitnessScript: witnessScript,
		SignerKey:     signerKey,
		PrevValues: []btcutil.Amount{
			protocol.StakeValueAmount, protocol.DustAmount,
		},
	}
}

// ChallengeRules returns the rules for a validator-signed challenge
// transaction spending the given stake transaction.
func ChallengeRules(stakeTxid chainhash.Hash, witnessScript []byte,
	signerKey *btcec.PublicKey) *PresignedRules {

	return &PresignedRules{
		Tx: protocol.ChallengeTx,
		PrevOuts: []wire.OutPoint{
			protocol.ConnectorAOutput.OutPoint(stakeTxid),
		},
		WitnessItems:  2,
		WitnessScript: witnessScript,
		SignerKey:     signerKey,
		PrevValues:    []btcutil.Amount{protocol.DustAmount},
	}
}

// DisproveRules returns the rules for a validator-signed disprove transaction
// spending the given assert transaction.
func DisproveRules(assertTxid chainhash.Hash, witnessScript []byte,
	signerKey *btcec.PublicKey) *PresignedRules {

	return &PresignedRules{
		Tx: protocol.DisproveTx,
		PrevOuts: []wire.OutPoint{
			protocol.ConnectorCOutput.OutPoint(assertTxid),
		},
		WitnessItems:  2,
		WitnessScript: witnessScript,
		SignerKey:     signerKey,
		PrevValues:    []btcutil.Amount{protocol.DustAmount},
	}
}

// CommitteeChallengeRules returns the rules a committee-signed challenge
// transaction must satisfy before a challenger fills it.
func CommitteeChallengeRules(witnessScript []byte) *PresignedRules {
	return &PresignedRules{
		Tx:              protocol.ChallengeTx,
		InputCount:      1,
		AllowOutputs:    true,
		RequiredOutputs: int(protocol.ChallengeChangeOutput),
		WitnessScript:   witnessScript,
	}
}

// CommitteeAssertRules returns the rules a committee-signed assert
// transaction must satisfy before a validator spends its connector C.
func CommitteeAssertRules() *PresignedRules {
	return &PresignedRules{
		Tx:              protocol.AssertTx,
		InputCount:      2,
		AllowOutputs:    true,
		RequiredOutputs: int(protocol.ConnectorCOutput) + 1,
	}
}
