package txbuilder

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"
	"github.com/fiamma-chain/fcli/protocol"
)

const (
	// keySpendTxVersion is the version of transactions spending a BIP86
	// output through the key path.
	keySpendTxVersion = 2

	// keySpendSigHashType commits the key path signature to the whole
	// transaction.
	keySpendSigHashType = txscript.SigHashAll
)

// SignKeyPathSpend builds a transaction that spends a single BIP86 output to
// the given outputs and signs it through the taproot key path. The
// transaction is staged as a PSBT, finalized and extracted and then executed
// by the script engine before it is returned.
func SignKeyPathSpend(privKey *btcec.PrivateKey, utxo *Utxo,
	outputs []*wire.TxOut) (*wire.MsgTx, error) {

	if privKey == nil || utxo == nil {
		return nil, errors.New("signing key and utxo are required")
	}

	if !txscript.IsPayToTaproot(utxo.PkScript) {
		return nil, fmt.Errorf("utxo %v has invalid script pubkey %x, "+
			"expected a taproot output", utxo.OutPoint,
			utxo.PkScript)
	}

	signerKey := privKey.PubKey()
	internalKey := utxo.Owner.UnwrapOr(signerKey)
	if !internalKey.IsEqual(signerKey) {
		return nil, fmt.Errorf("%w: owner %x, signer %x",
			protocol.ErrKeyMismatch,
			internalKey.SerializeCompressed(),
			signerKey.SerializeCompressed())
	}

	expectedPkScript, err := TaprootKeySpendPkScript(internalKey)
	if err != nil {
		return nil, fmt.Errorf("error deriving taproot script: %w", err)
	}
	if !bytes.Equal(expectedPkScript, utxo.PkScript) {
		return nil, fmt.Errorf("%w: utxo %v is locked to %x",
			protocol.ErrKeyMismatch, utxo.OutPoint, utxo.PkScript)
	}

	tx := wire.NewMsgTx(keySpendTxVersion)
	tx.LockTime = 0
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: utxo.OutPoint,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	for _, txOut := range copyTxOuts(outputs) {
		tx.AddTxOut(txOut)
	}

	packet, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, fmt.Errorf("error creating PSBT: %w", err)
	}

	pIn := &packet.Inputs[0]
	pIn.WitnessUtxo = utxo.TxOut()
	pIn.SighashType = keySpendSigHashType
	pIn.TaprootInternalKey = schnorr.SerializePubKey(internalKey)

	prevOutFetcher := txscript.NewCannedPrevOutputFetcher(
		utxo.PkScript, int64(utxo.Value),
	)
	sigHashes := txscript.NewTxSigHashes(packet.UnsignedTx, prevOutFetcher)
	sigHash, err := txscript.CalcTaprootSignatureHash(
		sigHashes, pIn.SighashType, packet.UnsignedTx, 0, prevOutFetcher,
	)
	if err != nil {
		return nil, fmt.Errorf("error calculating taproot sighash: %w",
			err)
	}

	// The output key of a BIP86 address is the internal key tweaked with
	// an empty script root, so the private key needs the same tweak.
	tweakedKey := txscript.TweakTaprootPrivKey(*privKey, nil)
	sig, err := schnorr.Sign(tweakedKey, sigHash)
	if err != nil {
		return nil, fmt.Errorf("error signing taproot input: %w", err)
	}
	pIn.TaprootKeySpendSig = append(
		sig.Serialize(), byte(pIn.SighashType),
	)

	if err := psbt.Finalize(packet, 0); err != nil {
		return nil, fmt.Errorf("error finalizing PSBT: %w", err)
	}

	finalTx, err := psbt.Extract(packet)
	if err != nil {
		return nil, fmt.Errorf("error extracting final tx: %w", err)
	}

	if err := mustVerify(finalTx, 0, prevOutFetcher); err != nil {
		return nil, err
	}

	log.Debugf("Signed key path spend of %v in tx %v", utxo.OutPoint,
		finalTx.TxHash())
	log.Tracef("Key path spend tx: %v", spew.Sdump(finalTx))

	return finalTx, nil
}
