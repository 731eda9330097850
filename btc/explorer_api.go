package btc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

const (
	// DefaultExplorerTimeout is used if no HTTP client is configured.
	DefaultExplorerTimeout = 30 * time.Second

	txNotFoundMessage = "Transaction not found"
)

// ExplorerAPI is a ChainSource backed by an Esplora compatible REST API such
// as the ones of blockstream.info and mempool.space.
type ExplorerAPI struct {
	BaseURL string
	Client  *http.Client
}

// NewExplorerAPI creates an explorer client with the given request timeout.
func NewExplorerAPI(baseURL string, timeout time.Duration) *ExplorerAPI {
	if timeout <= 0 {
		timeout = DefaultExplorerTimeout
	}

	return &ExplorerAPI{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

type TX struct {
	Txid   string  `json:"txid"`
	Vin    []*Vin  `json:"vin"`
	Vout   []*Vout `json:"vout"`
	Status *Status `json:"status"`
}

type Vin struct {
	Txid     string `json:"txid"`
	Vout     int    `json:"vout"`
	Prevout  *Vout  `json:"prevout"`
	Sequence uint32 `json:"sequence"`
}

type Vout struct {
	ScriptPubkey     string `json:"scriptpubkey"`
	ScriptPubkeyType string `json:"scriptpubkey_type"`
	ScriptPubkeyAddr string `json:"scriptpubkey_address"`
	Value            uint64 `json:"value"`
}

type Outspend struct {
	Spent  bool    `json:"spent"`
	Txid   string  `json:"txid"`
	Vin    int     `json:"vin"`
	Status *Status `json:"status"`
}

type Status struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight int64  `json:"block_height"`
	BlockHash   string `json:"block_hash"`
}

// FetchTx downloads the raw transaction.
func (a *ExplorerAPI) FetchTx(txid chainhash.Hash) (*wire.MsgTx, error) {
	body, err := a.get(fmt.Sprintf("%s/tx/%s/hex", a.BaseURL, txid))
	if err != nil {
		return nil, err
	}

	txBytes, err := hex.DecodeString(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("error decoding tx hex: %w", err)
	}

	tx := &wire.MsgTx{}
	if err := tx.Deserialize(bytes.NewReader(txBytes)); err != nil {
		return nil, fmt.Errorf("error parsing tx: %w", err)
	}

	if tx.TxHash() != txid {
		return nil, fmt.Errorf("explorer returned tx %v instead of %v",
			tx.TxHash(), txid)
	}

	return tx, nil
}

// Transaction returns the explorer's JSON view of a transaction.
func (a *ExplorerAPI) Transaction(txid chainhash.Hash) (*TX, error) {
	tx := &TX{}
	err := a.fetchJSON(fmt.Sprintf("%s/tx/%s", a.BaseURL, txid), tx)
	if err != nil {
		return nil, err
	}

	return tx, nil
}

// Outspends returns the spend status of every output of a transaction.
func (a *ExplorerAPI) Outspends(txid chainhash.Hash) ([]*Outspend, error) {
	var outspends []*Outspend
	err := a.fetchJSON(
		fmt.Sprintf("%s/tx/%s/outspends", a.BaseURL, txid), &outspends,
	)
	if err != nil {
		return nil, err
	}

	return outspends, nil
}

// TxInfo combines the transaction and its outspends.
func (a *ExplorerAPI) TxInfo(txid chainhash.Hash) (*TxInfo, error) {
	tx, err := a.Transaction(txid)
	if err != nil {
		return nil, err
	}

	outspends, err := a.Outspends(txid)
	if err != nil {
		return nil, err
	}

	info := &TxInfo{
		Txid:    txid,
		Outputs: make([]*OutputInfo, len(tx.Vout)),
	}
	if tx.Status != nil {
		info.Confirmed = tx.Status.Confirmed
		info.BlockHeight = tx.Status.BlockHeight
		info.BlockHash = tx.Status.BlockHash
	}

	for idx, vout := range tx.Vout {
		pkScript, err := hex.DecodeString(vout.ScriptPubkey)
		if err != nil {
			return nil, fmt.Errorf("error decoding script of output "+
				"%d: %w", idx, err)
		}

		info.Outputs[idx] = &OutputInfo{
			Value:    btcutil.Amount(vout.Value),
			PkScript: pkScript,
			Address:  vout.ScriptPubkeyAddr,
			Spent:    idx < len(outspends) && outspends[idx].Spent,
		}
	}

	return info, nil
}

// PublishTx posts the raw transaction and returns the id the explorer
// reports.
func (a *ExplorerAPI) PublishTx(tx *wire.MsgTx) (*chainhash.Hash, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("error serializing tx: %w", err)
	}

	url := fmt.Sprintf("%s/tx", a.BaseURL)
	resp, err := a.client().Post(
		url, "text/plain", strings.NewReader(
			hex.EncodeToString(buf.Bytes()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("error publishing tx: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explorer rejected tx %v: %s",
			tx.TxHash(), strings.TrimSpace(string(body)))
	}

	txid, err := chainhash.NewHashFromStr(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("invalid txid in explorer response: %w",
			err)
	}

	log.Infof("Published tx %v via %s", txid, a.BaseURL)

	return txid, nil
}

// BlockCount returns the height of the explorer's chain tip.
func (a *ExplorerAPI) BlockCount() (int64, error) {
	body, err := a.get(fmt.Sprintf("%s/blocks/tip/height", a.BaseURL))
	if err != nil {
		return 0, err
	}

	height, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block height: %w", err)
	}

	return height, nil
}

func (a *ExplorerAPI) client() *http.Client {
	if a.Client == nil {
		return &http.Client{Timeout: DefaultExplorerTimeout}
	}

	return a.Client
}

func (a *ExplorerAPI) get(url string) ([]byte, error) {
	log.Tracef("GET %s", url)

	resp, err := a.client().Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound,
		strings.TrimSpace(string(body)) == txNotFoundMessage:

		return nil, ErrTxNotFound

	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("explorer returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}

func (a *ExplorerAPI) fetchJSON(url string, target interface{}) error {
	body, err := a.get(url)
	if err != nil {
		return err
	}

	return json.Unmarshal(body, target)
}
