package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"tradebook/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithFileStore(t *testing.T) {
	broker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"T1","symbol":"SBIN-EQ"}]`))
	}))
	defer broker.Close()

	dataDir := t.TempDir()
	cfg := &config.Config{
		Store:  config.StoreConfig{Backend: config.StoreBackendFile, DataDir: dataDir},
		Alice:  config.AliceConfig{TradesEndpoint: broker.URL, DefaultAccountID: "Master"},
		Trades: config.TradesConfig{DefaultLimit: 200},
	}

	a, err := New(t.Context(), cfg, logrus.New())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, broker.URL, a.Client.Endpoint())

	a.Tokens.SaveToken(t.Context(), "Master", "tok", nil, nil)
	result, err := a.Service.FetchTradeBook(t.Context(), "")
	require.NoError(t, err)
	assert.Equal(t, "Master", result.AccountID)
	assert.Len(t, result.Trades, 1)

	assert.FileExists(t, filepath.Join(dataDir, "tokens.json"))
	raw, err := os.ReadFile(filepath.Join(dataDir, "trades.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"T1"`)
}

func TestOpenStore(t *testing.T) {
	dataDir := t.TempDir()
	store, closeStore, err := OpenStore(t.Context(), config.StoreConfig{Backend: config.StoreBackendFile, DataDir: dataDir}, logrus.New())
	require.NoError(t, err)
	defer closeStore()

	res := store.Get(t.Context(), "tokens")
	assert.Empty(t, res.Doc)
	assert.NoFileExists(t, filepath.Join(dataDir, "tokens.json"))
}
