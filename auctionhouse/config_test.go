package auctionhouse

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestLoadConfig(t *testing.T) {
	t.Run("decodes a full config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		data := `
[log]
level = "info"
format = "text"
add_source = false

[db]
host = "localhost"
port = 5432
user = "auctionhouse"
password = "secret"
database = "auctionhouse"
pool_size = 10

[chain]
start_block = 100
block_interval = "2s"

[engine]
escrow_account = "auctionhouse:escrow"
settle_interval = "15s"
`
		assert.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		cfg, err := LoadConfig(path)
		assert.NoError(t, err)
		check.Equal(t, "localhost", cfg.DB.Host)
		check.Equal(t, 10, cfg.DB.PoolSize)
		check.Equal(t, int64(100), cfg.Chain.StartBlock)
		check.Equal(t, 2*time.Second, cfg.Chain.BlockInterval.Std())
		check.Equal(t, "auctionhouse:escrow", cfg.Engine.EscrowAccount)
		check.Equal(t, 15*time.Second, cfg.Engine.SettleInterval.Std())
	})

	t.Run("fails on a missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
		check.Error(t, err)
	})
}
