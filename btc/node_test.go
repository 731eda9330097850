package btc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     json.RawMessage   `json:"id"`
}

func newTestNode(t *testing.T,
	handle func(method string, params []json.RawMessage) (interface{},
		*rpcError)) *NodeClient {

	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var req rpcRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			result, rpcErr := handle(req.Method, req.Params)
			resp := map[string]interface{}{
				"result": result,
				"error":  rpcErr,
				"id":     req.ID,
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		},
	))
	t.Cleanup(server.Close)

	client, err := NewNodeClient(&NodeConfig{
		Host: strings.TrimPrefix(server.URL, "http://"),
		User: "test",
		Pass: "1234",
	}, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	t.Cleanup(client.Shutdown)

	return client
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func TestNodeClient(t *testing.T) {
	tx := testTx()
	txid := tx.TxHash().String()

	var published string
	node := newTestNode(t, func(method string,
		params []json.RawMessage) (interface{}, *rpcError) {

		var id string
		if method == "sendrawtransaction" {
			_ = json.Unmarshal(params[0], &published)
			return txid, nil
		}
		if len(params) > 0 {
			_ = json.Unmarshal(params[0], &id)
		}
		if id != "" && id != txid {
			return nil, &rpcError{
				Code:    -5,
				Message: "No such mempool or blockchain transaction",
			}
		}

		switch method {
		case "getrawtransaction":
			var verbose int
			_ = json.Unmarshal(params[1], &verbose)
			if verbose == 0 {
				return txHex(t, tx), nil
			}

			return map[string]interface{}{
				"hex":           txHex(t, tx),
				"txid":          txid,
				"blockhash":     "00ff",
				"confirmations": 3,
				"vout": []map[string]interface{}{{
					"value": 0.000044,
					"n":     0,
					"scriptPubKey": map[string]string{
						"hex": "51",
					},
				}, {
					"value": 0.00001,
					"n":     1,
					"scriptPubKey": map[string]string{
						"hex": "001401",
					},
				}},
			}, nil

		case "gettxout":
			var n int
			_ = json.Unmarshal(params[1], &n)
			if n == 0 {
				return nil, nil
			}

			return map[string]interface{}{
				"bestblock":     "00ff",
				"confirmations": 3,
				"value":         0.00001,
				"scriptPubKey": map[string]string{
					"hex": "001401",
				},
			}, nil

		case "getblockcount":
			return 122, nil
		}

		return nil, &rpcError{Code: -32601, Message: "Method not found"}
	})

	fetched, err := node.FetchTx(tx.TxHash())
	require.NoError(t, err)
	require.Equal(t, tx.TxHash(), fetched.TxHash())

	_, err = node.FetchTx(chainhash.Hash{0x01})
	require.ErrorIs(t, err, ErrTxNotFound)

	info, err := node.TxInfo(tx.TxHash())
	require.NoError(t, err)
	require.True(t, info.Confirmed)
	require.EqualValues(t, 120, info.BlockHeight)
	require.Len(t, info.Outputs, 2)
	require.EqualValues(t, 4_400, info.Outputs[0].Value)
	require.True(t, info.Outputs[0].Spent)
	require.EqualValues(t, 1_000, info.Outputs[1].Value)
	require.False(t, info.Outputs[1].Spent)

	count, err := node.BlockCount()
	require.NoError(t, err)
	require.EqualValues(t, 122, count)

	publishedTxid, err := node.PublishTx(tx)
	require.NoError(t, err)
	require.Equal(t, tx.TxHash(), *publishedTxid)
	require.Equal(t, txHex(t, tx), published)
}
