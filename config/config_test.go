package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/fiamma-chain/fcli/protocol"
	"github.com/stretchr/testify/require"
)

func TestLoadProfiles(t *testing.T) {
	testCases := []struct {
		profile     string
		params      *chaincfg.Params
		committee   string
		host        string
		explorer    string
		chainSource ChainSourceKind
	}{{
		profile:     "",
		params:      &chaincfg.RegressionNetParams,
		committee:   "http://127.0.0.1:33000",
		host:        "127.0.0.1:18443",
		explorer:    "http://localhost:3004",
		chainSource: ChainSourceBitcoind,
	}, {
		profile:     "dev",
		params:      &chaincfg.SigNetParams,
		committee:   "http://54.65.75.57:33000",
		host:        "54.65.75.57:38332",
		explorer:    "https://mempool.space/signet/api",
		chainSource: ChainSourceBitcoind,
	}, {
		profile:     "TESTNET",
		params:      &chaincfg.TestNet3Params,
		explorer:    "https://blockstream.info/testnet/api",
		chainSource: ChainSourceExplorer,
	}}

	for _, tc := range testCases {
		t.Run(tc.profile, func(t *testing.T) {
			v := NewViper()
			if tc.profile != "" {
				v.Set(KeyProfile, tc.profile)
			}

			cfg, err := Load(v)
			require.NoError(t, err)
			require.Equal(t, tc.params.Name, cfg.Params.Name)
			require.Equal(t, tc.committee, cfg.CommitteeURL)
			require.Equal(t, tc.host, cfg.Bitcoind.Host)
			require.Equal(t, tc.explorer, cfg.ExplorerURL)
			require.Equal(t, tc.chainSource, cfg.ChainSource)
			require.Equal(t, DefaultTimeout, cfg.Timeout)
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FCLI_COMMITTEE", "http://committee:1234")
	t.Setenv("FCLI_BITCOIND_HOST", "node:18443")
	t.Setenv("FCLI_BITCOIND_PASS", "secret")
	t.Setenv("FCLI_TIMEOUT", "5s")

	v := NewViper()
	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "local", cfg.Profile)
	require.Equal(t, "http://committee:1234", cfg.CommitteeURL)
	require.Equal(t, "node:18443", cfg.Bitcoind.Host)
	require.Equal(t, "test", cfg.Bitcoind.User)
	require.Equal(t, "secret", cfg.Bitcoind.Pass)
	require.Equal(t, 5*time.Second, cfg.Timeout)

	v.Set(KeyNetwork, "signet")
	v.Set(KeyChainSource, "Explorer")
	cfg, err = Load(v)
	require.NoError(t, err)
	require.Equal(t, chaincfg.SigNetParams.Name, cfg.Params.Name)
	require.Equal(t, ChainSourceExplorer, cfg.ChainSource)
}

func TestLoadConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "fcli.yaml")
	err := os.WriteFile(file, []byte(
		"profile: testnet\n"+
			"committee: http://committee.example:33000\n"+
			"bitcoind:\n"+
			"  host: 10.0.0.1:18332\n",
	), 0600)
	require.NoError(t, err)

	v := NewViper()
	v.Set(KeyConfigFile, file)

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "testnet", cfg.Profile)
	require.Equal(t, chaincfg.TestNet3Params.Name, cfg.Params.Name)
	require.Equal(t, "http://committee.example:33000", cfg.CommitteeURL)
	require.Equal(t, "10.0.0.1:18332", cfg.Bitcoind.Host)
	require.NoError(t, cfg.CheckCommittee())
	require.NoError(t, cfg.CheckChainSource())

	v = NewViper()
	v.Set(KeyConfigFile, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load(v)
	require.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	v := NewViper()
	v.Set(KeyProfile, "mainnet")
	_, err := Load(v)
	require.ErrorContains(t, err, "unknown profile")

	v = NewViper()
	v.Set(KeyNetwork, "litecoin")
	_, err = Load(v)
	require.ErrorIs(t, err, protocol.ErrUnsupportedNetwork)

	v = NewViper()
	v.Set(KeyChainSource, "electrum")
	_, err = Load(v)
	require.ErrorContains(t, err, "invalid chain source")

	v = NewViper()
	v.Set(KeyProfile, "testnet")
	cfg, err := Load(v)
	require.NoError(t, err)
	require.ErrorContains(t, cfg.CheckCommittee(), "no committee endpoint")
	require.NoError(t, cfg.CheckChainSource())

	cfg.ChainSource = ChainSourceBitcoind
	require.ErrorContains(t, cfg.CheckChainSource(), "no bitcoind host")
}

func TestNetworkParams(t *testing.T) {
	for name, expected := range map[string]*chaincfg.Params{
		"mainnet":  &chaincfg.MainNetParams,
		"bitcoin":  &chaincfg.MainNetParams,
		"testnet":  &chaincfg.TestNet3Params,
		"testnet3": &chaincfg.TestNet3Params,
		"Signet":   &chaincfg.SigNetParams,
		"regtest":  &chaincfg.RegressionNetParams,
	} {
		params, err := NetworkParams(name)
		require.NoError(t, err)
		require.Equal(t, expected.Name, params.Name)
	}

	_, err := NetworkParams("simnet")
	require.ErrorIs(t, err, protocol.ErrUnsupportedNetwork)
}

func TestBurnAddress(t *testing.T) {
	addr, err := BurnAddress(&chaincfg.RegressionNetParams)
	require.NoError(t, err)
	require.Equal(t, "bcrt1pmdx8nnpllj3x750zzfqmjvedv34swuka06vda8qau6csn"+
		"yx2hq9s6p89qf", addr)

	addr, err = BurnAddress(&chaincfg.MainNetParams)
	require.NoError(t, err)
	decoded, err := btcutil.DecodeAddress(addr, &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.True(t, decoded.IsForNet(&chaincfg.MainNetParams))

	_, err = BurnAddress(&chaincfg.TestNet3Params)
	require.ErrorIs(t, err, ErrNoBurnAddress)
}
