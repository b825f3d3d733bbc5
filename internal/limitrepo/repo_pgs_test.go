//go:build integration

package limitrepo_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/integrationtest"
	"github.com/go-petr/pet-wallet/internal/limitrepo"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/pkg/configpkg"
	"github.com/go-petr/pet-wallet/pkg/randompkg"
)

var (
	dbDriver string
	dbSource string
	ctx      context.Context
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	dbDriver = config.DBDriver
	dbSource = config.DBSource

	logger := middleware.CreateLogger(config)
	ctx = logger.WithContext(context.Background())

	os.Exit(m.Run())
}

func TestSaveAndList(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := limitrepo.NewRepoPGS(tx)

	account := integrationtest.SeedAccount(t, tx, "0")
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	daily := domain.LimitWindow{
		AccountID:        account.ID,
		Operation:        domain.KindTransfer,
		Window:           domain.WindowDaily,
		WindowStart:      start,
		CumulativeAmount: decimal.RequireFromString("10.50"),
	}

	require.NoError(t, repo.Save(ctx, daily))

	daily.WindowStart = start.AddDate(0, 0, 1)
	daily.CumulativeAmount = decimal.RequireFromString("3")
	require.NoError(t, repo.Save(ctx, daily))

	got, err := repo.List(ctx, account.ID, domain.KindTransfer)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, daily.WindowStart.Equal(got[0].WindowStart))
	require.True(t, daily.CumulativeAmount.Equal(got[0].CumulativeAmount))

	got, err = repo.List(ctx, account.ID, domain.KindRecharge)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSaveUnknownAccount(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := limitrepo.NewRepoPGS(tx)

	err := repo.Save(ctx, domain.LimitWindow{
		AccountID:   randompkg.AccountID(),
		Operation:   domain.KindTransfer,
		Window:      domain.WindowMonthly,
		WindowStart: time.Now().UTC(),
	})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestCaps(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := limitrepo.NewRepoPGS(tx)

	account := integrationtest.SeedAccount(t, tx, "0")

	_, ok, err := repo.GetCaps(ctx, account.ID, domain.KindTransfer)
	require.NoError(t, err)
	require.False(t, ok)

	caps := domain.Caps{
		Transaction: decimal.NewFromInt(100),
		Daily:       decimal.NewFromInt(200),
	}
	require.NoError(t, repo.SetCaps(ctx, account.ID, domain.KindTransfer, caps))

	got, ok, err := repo.GetCaps(ctx, account.ID, domain.KindTransfer)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, caps.Transaction.Equal(got.Transaction))
	require.True(t, caps.Daily.Equal(got.Daily))
	require.True(t, got.Monthly.IsZero())
}
