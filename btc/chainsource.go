package btc

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

var (
	// ErrTxNotFound is returned if the chain backend does not know a
	// transaction.
	ErrTxNotFound = errors.New("transaction not found")

	// ErrOutputNotFound is returned if a transaction has no output at
	// the requested index.
	ErrOutputNotFound = errors.New("output not found")
)

// ChainSource is the read and publish access to the chain the tools need.
type ChainSource interface {
	// FetchTx returns a transaction by its id.
	FetchTx(txid chainhash.Hash) (*wire.MsgTx, error)

	// TxInfo returns the confirmation status and outputs of a
	// transaction.
	TxInfo(txid chainhash.Hash) (*TxInfo, error)

	// PublishTx broadcasts a fully signed transaction.
	PublishTx(tx *wire.MsgTx) (*chainhash.Hash, error)

	// BlockCount returns the height of the best block.
	BlockCount() (int64, error)
}

// TxInfo is what a chain backend reports about a transaction.
type TxInfo struct {
	Txid        chainhash.Hash
	Confirmed   bool
	BlockHeight int64
	BlockHash   string
	Outputs     []*OutputInfo
}

// OutputInfo describes one output of a transaction and whether it was spent.
type OutputInfo struct {
	Value    btcutil.Amount
	PkScript []byte
	Address  string
	Spent    bool
}

// FetchUtxo resolves the value and script of an outpoint.
func FetchUtxo(src ChainSource, op wire.OutPoint) (*wire.TxOut, error) {
	tx, err := src.FetchTx(op.Hash)
	if err != nil {
		return nil, fmt.Errorf("error fetching tx %v: %w", op.Hash, err)
	}

	if int(op.Index) >= len(tx.TxOut) {
		return nil, fmt.Errorf("%w: tx %v has %d outputs, wanted %d",
			ErrOutputNotFound, op.Hash, len(tx.TxOut), op.Index)
	}

	txOut := tx.TxOut[op.Index]
	pkScript := make([]byte, len(txOut.PkScript))
	copy(pkScript, txOut.PkScript)

	log.Debugf("Resolved %v to %v locked to %x", op,
		btcutil.Amount(txOut.Value), pkScript)

	return wire.NewTxOut(txOut.Value, pkScript), nil
}
