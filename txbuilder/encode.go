package txbuilder

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/fiamma-chain/fcli/protocol"
)

// EncodeTx serializes a transaction including its witness data to hex.
func EncodeTx(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", fmt.Errorf("error serializing tx: %w", err)
	}

	return hex.EncodeToString(buf.Bytes()), nil
}

// DecodeTx parses a hex encoded transaction.
func DecodeTx(txHex string) (*wire.MsgTx, error) {
	txBytes, err := hex.DecodeString(strings.TrimSpace(txHex))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrInvalidTxHex, err)
	}

	tx := &wire.MsgTx{}
	if err := tx.Deserialize(bytes.NewReader(txBytes)); err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrInvalidTxHex, err)
	}

	return tx, nil
}

// ParseTxid parses a transaction id in its usual byte reversed hex form.
func ParseTxid(txid string) (*chainhash.Hash, error) {
	hash, err := chainhash.NewHashFromStr(strings.TrimSpace(txid))
	if err != nil {
		return nil, fmt.Errorf("invalid txid '%s': %w", txid, err)
	}

	if len(strings.TrimSpace(txid)) != chainhash.MaxHashStringSize {
		return nil, fmt.Errorf("invalid txid '%s': must be %d hex "+
			"characters", txid, chainhash.MaxHashStringSize)
	}

	return hash, nil
}
