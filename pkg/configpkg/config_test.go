package configpkg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-wallet/internal/domain"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	content := "DB_DRIVER=memory\nTOKEN_SYMMETRIC_KEY=12345678901234567890123456789012\nTRANSFER_DAILY_CAP=100.50\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	config, err := Load(dir)
	require.NoError(t, err)

	require.Equal(t, "memory", config.DBDriver)
	require.Equal(t, "0.0.0.0:8080", config.ServerAddress)
	require.Equal(t, 15*time.Minute, config.AccessTokenDuration)
	require.Equal(t, 3, config.MaxCommitRetries)

	caps, err := config.DefaultCaps()
	require.NoError(t, err)
	require.True(t, caps[domain.KindTransfer].Daily.Equal(decimal.RequireFromString("100.50")))
	require.True(t, caps[domain.KindRecharge].Daily.IsZero())

	loc, err := config.Location()
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)
}

func TestDefaultCapsInvalid(t *testing.T) {
	testCases := []struct {
		name   string
		config Config
	}{
		{name: "Malformed", config: Config{TransferTxCap: "ten"}},
		{name: "Negative", config: Config{RechargeMonthlyCap: "-1"}},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.config.DefaultCaps()
			require.Error(t, err)
		})
	}
}
