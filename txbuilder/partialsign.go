package txbuilder

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/fiamma-chain/fcli/protocol"
	"github.com/lightningnetwork/lnd/input"
)

const (
	// partialTxVersion is the version of the assert, challenge and
	// disprove transactions.
	partialTxVersion = 1

	// PartialCommitmentSigHash only commits to the signed input itself.
	// Other parties can add inputs and outputs later without invalidating
	// the signature.
	PartialCommitmentSigHash = txscript.SigHashNone |
		txscript.SigHashAnyOneCanPay
)

// SignPartialCommitment builds a transaction spending the given committee
// multisig outputs and signs every input with the partial commitment sighash.
// The transaction has no outputs, they are added by the committee.
func SignPartialCommitment(privKey *btcec.PrivateKey, prevOuts []*Utxo,
	witnessScript []byte) (*wire.MsgTx, error) {

	if privKey == nil {
		return nil, errors.New("signing key is required")
	}
	if len(prevOuts) == 0 {
		return nil, errors.New("at least one input is required")
	}

	pkScript, err := P2WSHPkScript(witnessScript)
	if err != nil {
		return nil, fmt.Errorf("error deriving P2WSH script: %w", err)
	}

	tx := wire.NewMsgTx(partialTxVersion)
	tx.LockTime = 0
	for _, prevOut := range prevOuts {
		if len(prevOut.PkScript) > 0 &&
			!bytes.Equal(prevOut.PkScript, pkScript) {

			return nil, fmt.Errorf("utxo %v is not locked to the "+
				"witness script", prevOut.OutPoint)
		}

		tx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: prevOut.OutPoint,
			Sequence:         wire.MaxTxInSequenceNum,
		})
	}

	pubKey := privKey.PubKey()
	sigHashes := input.NewTxSigHashesV0Only(tx)
	for idx, prevOut := range prevOuts {
		sig, err := txscript.RawTxInWitnessSignature(
			tx, sigHashes, idx, int64(prevOut.Value), witnessScript,
			PartialCommitmentSigHash, privKey,
		)
		if err != nil {
			return nil, fmt.Errorf("error signing input %d: %w", idx,
				err)
		}

		err = verifyWitnessSig(
			tx, idx, prevOut.Value, witnessScript, sig, pubKey,
		)
		if err != nil {
			log.Errorf("Freshly signed input %d does not verify: %v",
				idx, err)

			return nil, fmt.Errorf("%w: input %d: %v",
				protocol.ErrVerificationFailed, idx, err)
		}

		script := make([]byte, len(witnessScript))
		copy(script, witnessScript)
		tx.TxIn[idx].Witness = wire.TxWitness{sig, script}
	}

	log.Debugf("Signed %d committee input(s) of tx %v", len(prevOuts),
		tx.TxHash())

	return tx, nil
}

// VerifyPartialSignature checks the signature in the witness of a P2WSH input
// against the given public key. The sighash type is taken from the signature
// itself.
func VerifyPartialSignature(tx *wire.MsgTx, idx int, value btcutil.Amount,
	witnessScript []byte, pubKey *btcec.PublicKey) error {

	if idx < 0 || idx >= len(tx.TxIn) {
		return fmt.Errorf("input index %d out of range", idx)
	}

	witness := tx.TxIn[idx].Witness
	if len(witness) == 0 {
		return fmt.Errorf("input %d has no witness", idx)
	}

	return verifyWitnessSig(
		tx, idx, value, witnessScript, witness[0], pubKey,
	)
}

// parseWitnessSig splits a witness signature into the DER signature and its
// sighash type.
func parseWitnessSig(sig []byte) (*ecdsa.Signature, txscript.SigHashType,
	error) {

	if len(sig) < 2 {
		return nil, 0, fmt.Errorf("signature too short")
	}

	hashType := txscript.SigHashType(sig[len(sig)-1])
	parsed, err := ecdsa.ParseDERSignature(sig[:len(sig)-1])
	if err != nil {
		return nil, 0, err
	}

	return parsed, hashType, nil
}

func verifyWitnessSig(tx *wire.MsgTx, idx int, value btcutil.Amount,
	witnessScript, sig []byte, pubKey *btcec.PublicKey) error {

	parsed, hashType, err := parseWitnessSig(sig)
	if err != nil {
		return fmt.Errorf("error parsing signature: %w", err)
	}

	sigHash, err := txscript.CalcWitnessSigHash(
		witnessScript, input.NewTxSigHashesV0Only(tx), hashType, tx,
		idx, int64(value),
	)
	if err != nil {
		return fmt.Errorf("error calculating sighash: %w", err)
	}

	if !parsed.Verify(sigHash, pubKey) {
		return fmt.Errorf("invalid signature for input %d", idx)
	}

	return nil
}
