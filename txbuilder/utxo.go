package txbuilder

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Utxo is an unspent output that is about to be spent. Its value and script
// must be resolved by the caller, nothing in this package goes to the
// network.
type Utxo struct {
	OutPoint wire.OutPoint
	Value    btcutil.Amount

	// PkScript is the output script. Builders spending committee outputs
	// leave it empty and derive it from the witness script.
	PkScript []byte

	// Owner is the key the output is locked to, if known.
	Owner fn.Option[*btcec.PublicKey]
}

// TxOut returns a copy of the output the Utxo refers to.
func (u *Utxo) TxOut() *wire.TxOut {
	pkScript := make([]byte, len(u.PkScript))
	copy(pkScript, u.PkScript)

	return wire.NewTxOut(int64(u.Value), pkScript)
}

// NewUtxo creates a Utxo from an outpoint and the resolved output.
func NewUtxo(op wire.OutPoint, txOut *wire.TxOut) *Utxo {
	pkScript := make([]byte, len(txOut.PkScript))
	copy(pkScript, txOut.PkScript)

	return &Utxo{
		OutPoint: op,
		Value:    btcutil.Amount(txOut.Value),
		PkScript: pkScript,
		Owner:    fn.None[*btcec.PublicKey](),
	}
}

// WithOwner returns a copy of the Utxo with the owner key set.
func (u *Utxo) WithOwner(owner *btcec.PublicKey) *Utxo {
	c := *u
	c.Owner = fn.Some(owner)

	return &c
}

func copyTxOuts(outputs []*wire.TxOut) []*wire.TxOut {
	c := make([]*wire.TxOut, len(outputs))
	for i, out := range outputs {
		pkScript := make([]byte, len(out.PkScript))
		copy(pkScript, out.PkScript)
		c[i] = wire.NewTxOut(out.Value, pkScript)
	}

	return c
}
