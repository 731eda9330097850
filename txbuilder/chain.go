package txbuilder

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/fiamma-chain/fcli/protocol"
	"github.com/lightningnetwork/lnd/input"
)

// StakeOutputs returns the outputs of a stake transaction funded with the
// given value. All but the change output pay to the committee.
func StakeOutputs(fundingValue btcutil.Amount, committeePkScript,
	changePkScript []byte) ([]*wire.TxOut, error) {

	change, err := protocol.CheckedSub(fundingValue, protocol.StakeTxCost())
	if err != nil {
		return nil, err
	}
	if change < protocol.DustAmount {
		log.Warnf("Stake change output of %v is below dust", change)
	}

	dust := int64(protocol.DustAmount)
	outputs := make([]*wire.TxOut, protocol.NumStakeOutputs)
	outputs[protocol.StakeValueOutput] = wire.NewTxOut(
		int64(protocol.StakeValueAmount), committeePkScript,
	)

	// The unstake output does not carry a timelock yet, it is locked to
	// the committee like the connectors.
	outputs[protocol.UnstakeTimelockOutput] = wire.NewTxOut(
		dust, committeePkScript,
	)
	outputs[protocol.ConnectorAOutput] = wire.NewTxOut(
		dust, committeePkScript,
	)
	outputs[protocol.ConnectorBOutput] = wire.NewTxOut(
		dust, committeePkScript,
	)
	outputs[protocol.StakeChangeOutput] = wire.NewTxOut(
		int64(change), changePkScript,
	)

	return copyTxOuts(outputs), nil
}

// BuildStakeTx creates and signs the stake transaction spending the
// validator's BIP86 funding output. Change goes back to the validator's BIP86
// address.
func BuildStakeTx(privKey *btcec.PrivateKey, funding *Utxo,
	witnessScript []byte) (*wire.MsgTx, error) {

	committeePkScript, err := P2WSHPkScript(witnessScript)
	if err != nil {
		return nil, fmt.Errorf("error deriving committee script: %w", err)
	}

	changePkScript, err := TaprootKeySpendPkScript(privKey.PubKey())
	if err != nil {
		return nil, fmt.Errorf("error deriving change script: %w", err)
	}

	outputs, err := StakeOutputs(
		funding.Value, committeePkScript, changePkScript,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating stake outputs: %w", err)
	}

	var estimator input.TxWeightEstimator
	estimator.AddTaprootKeySpendInput(keySpendSigHashType)
	for i := 0; i < protocol.NumStakeOutputs-1; i++ {
		estimator.AddP2WSHOutput()
	}
	estimator.AddP2TROutput()
	log.Debugf("Stake tx estimated at %d vbytes, paying %v fee",
		estimator.VSize(), protocol.StakeFeeAmount)

	return SignKeyPathSpend(privKey, funding, outputs)
}

// committeeUtxo is an output locked to the committee multisig.
func committeeUtxo(op wire.OutPoint, value btcutil.Amount) *Utxo {
	return &Utxo{OutPoint: op, Value: value}
}

// BuildAssertTx signs the validator's part of the assert transaction. It
// spends the stake value and connector B outputs of the stake transaction.
func BuildAssertTx(privKey *btcec.PrivateKey, stakeTxid chainhash.Hash,
	witnessScript []byte) (*wire.MsgTx, error) {

	s := protocol.Schema()
	return SignPartialCommitment(privKey, []*Utxo{
		committeeUtxo(
			s.StakeValue.OutPoint(stakeTxid),
			protocol.StakeValueAmount,
		),
		committeeUtxo(
			s.ConnectorB.OutPoint(stakeTxid), protocol.DustAmount,
		),
	}, witnessScript)
}

// BuildChallengeTx signs the validator's part of the challenge transaction.
// It spends connector A of the stake transaction.
func BuildChallengeTx(privKey *btcec.PrivateKey, stakeTxid chainhash.Hash,
	witnessScript []byte) (*wire.MsgTx, error) {

	s := protocol.Schema()
	return SignPartialCommitment(privKey, []*Utxo{
		committeeUtxo(
			s.ConnectorA.OutPoint(stakeTxid), protocol.DustAmount,
		),
	}, witnessScript)
}

// BuildDisproveTx signs the validator's part of the disprove transaction. It
// spends connector C of an assert transaction.
func BuildDisproveTx(privKey *btcec.PrivateKey, assertTxid chainhash.Hash,
	witnessScript []byte) (*wire.MsgTx, error) {

	s := protocol.Schema()
	return SignPartialCommitment(privKey, []*Utxo{
		committeeUtxo(
			s.ConnectorC.OutPoint(assertTxid), protocol.DustAmount,
		),
	}, witnessScript)
}

// PresignedSet is what a validator hands to the committee to start a
// registration.
type PresignedSet struct {
	Stake     *wire.MsgTx
	Assert    *wire.MsgTx
	Challenge *wire.MsgTx
}

// BuildPresignedSet builds the stake transaction and the assert and
// challenge transactions spending it.
func BuildPresignedSet(privKey *btcec.PrivateKey, funding *Utxo,
	witnessScript []byte) (*PresignedSet, error) {

	stakeTx, err := BuildStakeTx(privKey, funding, witnessScript)
	if err != nil {
		return nil, fmt.Errorf("error building stake tx: %w", err)
	}
	stakeTxid := stakeTx.TxHash()

	assertTx, err := BuildAssertTx(privKey, stakeTxid, witnessScript)
	if err != nil {
		return nil, fmt.Errorf("error building assert tx: %w", err)
	}

	challengeTx, err := BuildChallengeTx(privKey, stakeTxid, witnessScript)
	if err != nil {
		return nil, fmt.Errorf("error building challenge tx: %w", err)
	}

	return &PresignedSet{
		Stake:     stakeTx,
		Assert:    assertTx,
		Challenge: challengeTx,
	}, nil
}

// BuildDisproveTxs signs one disprove transaction for each circuit's assert
// transaction.
func BuildDisproveTxs(privKey *btcec.PrivateKey, assertTxs []protocol.CircuitTx,
	witnessScript []byte) ([]protocol.CircuitTx, error) {

	disproveTxs := make([]protocol.CircuitTx, 0, len(assertTxs))
	for _, assert := range assertTxs {
		assertTx, err := DecodeTx(assert.TxHex)
		if err != nil {
			return nil, fmt.Errorf("error decoding assert tx of "+
				"circuit %s: %w", assert.VKHash, err)
		}

		if len(assertTx.TxOut) <= int(protocol.ConnectorCOutput) {
			return nil, protocol.NewShapeError(
				protocol.AssertTx, protocol.MissingOutput, "%d",
				protocol.ConnectorCOutput,
			)
		}

		disproveTx, err := BuildDisproveTx(
			privKey, assertTx.TxHash(), witnessScript,
		)
		if err != nil {
			return nil, fmt.Errorf("error building disprove tx of "+
				"circuit %s: %w", assert.VKHash, err)
		}

		txHex, err := EncodeTx(disproveTx)
		if err != nil {
			return nil, err
		}

		disproveTxs = append(disproveTxs, protocol.CircuitTx{
			VKHash: assert.VKHash,
			TxHex:  txHex,
		})
	}

	return disproveTxs, nil
}
