package txbuilder

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/fiamma-chain/fcli/protocol"
)

// FillChallengeTx completes the committee's challenge transaction with the
// challenger's funding input and change output. The committee's input was
// signed with the partial commitment sighash and stays valid. The new input is
// signed through the taproot key path committing to the whole transaction.
// The passed transaction is not modified.
func FillChallengeTx(committeeTx *wire.MsgTx, privKey *btcec.PrivateKey,
	funding *Utxo, witnessScript []byte) (*wire.MsgTx, error) {

	if committeeTx == nil || privKey == nil || funding == nil {
		return nil, errors.New("challenge tx, signing key and funding " +
			"utxo are required")
	}

	if len(committeeTx.TxIn) != 1 {
		return nil, protocol.NewShapeError(
			protocol.ChallengeTx, protocol.InvalidInputCount, "%d",
			len(committeeTx.TxIn),
		)
	}

	// The change output has a fixed index every party signs against, so
	// the committee's outputs must fill exactly the slots before it.
	changeIdx := int(protocol.Schema().ChallengeChange)
	switch {
	case len(committeeTx.TxOut) < changeIdx:
		return nil, protocol.NewShapeError(
			protocol.ChallengeTx, protocol.MissingOutput,
			"%d, expected %d", len(committeeTx.TxOut), changeIdx,
		)

	case len(committeeTx.TxOut) > changeIdx:
		return nil, protocol.NewShapeError(
			protocol.ChallengeTx, protocol.InvalidOutputCount,
			"%d, expected %d", len(committeeTx.TxOut), changeIdx,
		)
	}

	committeePkScript, err := P2WSHPkScript(witnessScript)
	if err != nil {
		return nil, fmt.Errorf("error deriving committee script: %w", err)
	}

	signerKey := privKey.PubKey()
	changePkScript, err := TaprootKeySpendPkScript(signerKey)
	if err != nil {
		return nil, fmt.Errorf("error deriving change script: %w", err)
	}

	if !bytes.Equal(funding.PkScript, changePkScript) {
		return nil, fmt.Errorf("%w: funding utxo %v is locked to %x",
			protocol.ErrKeyMismatch, funding.OutPoint,
			funding.PkScript)
	}
	if owner := funding.Owner.UnwrapOr(signerKey); !owner.IsEqual(signerKey) {
		return nil, fmt.Errorf("%w: owner %x", protocol.ErrKeyMismatch,
			owner.SerializeCompressed())
	}

	change, err := protocol.CheckedSub(
		funding.Value, protocol.ChallengeCost(),
	)
	if err != nil {
		return nil, fmt.Errorf("error computing challenge change: %w",
			err)
	}

	tx := committeeTx.Copy()
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: funding.OutPoint,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(wire.NewTxOut(int64(change), changePkScript))

	prevOutFetcher := txscript.NewMultiPrevOutFetcher(
		map[wire.OutPoint]*wire.TxOut{
			tx.TxIn[0].PreviousOutPoint: wire.NewTxOut(
				int64(protocol.DustAmount), committeePkScript,
			),
			funding.OutPoint: funding.TxOut(),
		},
	)

	idx := len(tx.TxIn) - 1
	sigHashes := txscript.NewTxSigHashes(tx, prevOutFetcher)
	sigHash, err := txscript.CalcTaprootSignatureHash(
		sigHashes, keySpendSigHashType, tx, idx, prevOutFetcher,
	)
	if err != nil {
		return nil, fmt.Errorf("error calculating taproot sighash: %w",
			err)
	}

	tweakedKey := txscript.TweakTaprootPrivKey(*privKey, nil)
	sig, err := schnorr.Sign(tweakedKey, sigHash)
	if err != nil {
		return nil, fmt.Errorf("error signing challenger input: %w", err)
	}
	tx.TxIn[idx].Witness = wire.TxWitness{
		append(sig.Serialize(), byte(keySpendSigHashType)),
	}

	if err := mustVerify(tx, idx, prevOutFetcher); err != nil {
		return nil, err
	}

	log.Infof("Filled challenge tx %v with input %v and change %v at "+
		"output %d", tx.TxHash(), funding.OutPoint, change, changeIdx)

	return tx, nil
}
