package txbuilder

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/fiamma-chain/fcli/protocol"
)

// VerifyInput runs the script engine for one input of a fully signed
// transaction against the given previous outputs.
func VerifyInput(tx *wire.MsgTx, idx int,
	prevOutFetcher txscript.PrevOutputFetcher) error {

	if idx < 0 || idx >= len(tx.TxIn) {
		return fmt.Errorf("input index %d out of range", idx)
	}

	prevOut := prevOutFetcher.FetchPrevOutput(
		tx.TxIn[idx].PreviousOutPoint,
	)
	if prevOut == nil {
		return fmt.Errorf("previous output of input %d unknown", idx)
	}

	sigHashes := txscript.NewTxSigHashes(tx, prevOutFetcher)
	vm, err := txscript.NewEngine(
		prevOut.PkScript, tx, idx, txscript.StandardVerifyFlags, nil,
		sigHashes, prevOut.Value, prevOutFetcher,
	)
	if err != nil {
		return fmt.Errorf("error creating script engine: %w", err)
	}

	if err := vm.Execute(); err != nil {
		return fmt.Errorf("error executing script of input %d: %w",
			idx, err)
	}

	return nil
}

// mustVerify turns a failed verification of our own signature into
// ErrVerificationFailed.
func mustVerify(tx *wire.MsgTx, idx int,
	prevOutFetcher txscript.PrevOutputFetcher) error {

	if err := VerifyInput(tx, idx, prevOutFetcher); err != nil {
		log.Errorf("Freshly signed input %d of %v does not verify: %v",
			idx, tx.TxHash(), err)

		return fmt.Errorf("%w: %v", protocol.ErrVerificationFailed, err)
	}

	return nil
}
