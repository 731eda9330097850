package btc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// NodeConfig holds the connection details of a bitcoind JSON-RPC endpoint.
type NodeConfig struct {
	Host string
	User string
	Pass string
}

// NodeClient is a ChainSource talking to bitcoind over JSON-RPC.
type NodeClient struct {
	client *rpcclient.Client
	params *chaincfg.Params
}

// NewNodeClient creates a client in HTTP POST mode. No connection is made
// until the first call.
func NewNodeClient(cfg *NodeConfig, params *chaincfg.Params) (*NodeClient,
	error) {

	rpcCfg := rpcclient.ConnConfig{
		Host:                 cfg.Host,
		User:                 cfg.User,
		Pass:                 cfg.Pass,
		DisableConnectOnNew:  true,
		DisableAutoReconnect: false,
		DisableTLS:           true,
		HTTPPostMode:         true,
	}

	client, err := rpcclient.New(&rpcCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating bitcoind client: %w", err)
	}

	return &NodeClient{client: client, params: params}, nil
}

// Shutdown stops the underlying RPC client.
func (n *NodeClient) Shutdown() {
	n.client.Shutdown()
}

// FetchTx calls getrawtransaction.
func (n *NodeClient) FetchTx(txid chainhash.Hash) (*wire.MsgTx, error) {
	tx, err := n.client.GetRawTransaction(&txid)
	if err != nil {
		return nil, mapNodeError(err)
	}

	return tx.MsgTx(), nil
}

// TxInfo calls getrawtransaction in verbose mode and looks up the spend status
// of each output with gettxout.
func (n *NodeClient) TxInfo(txid chainhash.Hash) (*TxInfo, error) {
	res, err := n.client.GetRawTransactionVerbose(&txid)
	if err != nil {
		return nil, mapNodeError(err)
	}

	info := &TxInfo{
		Txid:      txid,
		Confirmed: res.Confirmations > 0,
		BlockHash: res.BlockHash,
		Outputs:   make([]*OutputInfo, len(res.Vout)),
	}

	if info.Confirmed {
		count, err := n.BlockCount()
		if err != nil {
			return nil, err
		}
		info.BlockHeight = count - int64(res.Confirmations) + 1
	}

	for idx, vout := range res.Vout {
		pkScript, err := hex.DecodeString(vout.ScriptPubKey.Hex)
		if err != nil {
			return nil, fmt.Errorf("error decoding script of output "+
				"%d: %w", idx, err)
		}

		value, err := btcutil.NewAmount(vout.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid value of output %d: %w",
				idx, err)
		}

		unspent, err := n.client.GetTxOut(&txid, vout.N, true)
		if err != nil {
			return nil, mapNodeError(err)
		}

		info.Outputs[idx] = &OutputInfo{
			Value:    value,
			PkScript: pkScript,
			Address:  n.scriptAddress(pkScript),
			Spent:    unspent == nil,
		}
	}

	return info, nil
}

// PublishTx calls sendrawtransaction. The request is sent raw so the client
// does not have to probe the backend version first.
func (n *NodeClient) PublishTx(tx *wire.MsgTx) (*chainhash.Hash, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("error serializing tx: %w", err)
	}

	txHex, err := json.Marshal(hex.EncodeToString(buf.Bytes()))
	if err != nil {
		return nil, err
	}

	res, err := n.client.RawRequest(
		"sendrawtransaction", []json.RawMessage{txHex},
	)
	if err != nil {
		return nil, fmt.Errorf("error publishing tx %v: %w", tx.TxHash(),
			err)
	}

	var txidStr string
	if err := json.Unmarshal(res, &txidStr); err != nil {
		return nil, fmt.Errorf("invalid sendrawtransaction result: %w",
			err)
	}

	txid, err := chainhash.NewHashFromStr(txidStr)
	if err != nil {
		return nil, err
	}

	log.Infof("Published tx %v to bitcoind", txid)

	return txid, nil
}

// BlockCount calls getblockcount.
func (n *NodeClient) BlockCount() (int64, error) {
	return n.client.GetBlockCount()
}

func (n *NodeClient) scriptAddress(pkScript []byte) string {
	if n.params == nil {
		return ""
	}

	_, addrs, _, err := txscript.ExtractPkScriptAddrs(pkScript, n.params)
	if err != nil || len(addrs) != 1 {
		return ""
	}

	return addrs[0].EncodeAddress()
}

func mapNodeError(err error) error {
	var rpcErr *btcjson.RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == btcjson.ErrRPCNoTxInfo {
		return fmt.Errorf("%w: %s", ErrTxNotFound, rpcErr.Message)
	}

	return err
}
