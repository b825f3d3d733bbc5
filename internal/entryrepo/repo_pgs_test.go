//go:build integration

package entryrepo_test

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/entryrepo"
	"github.com/go-petr/pet-wallet/internal/integrationtest"
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

func transferEntry(from, to, amount, key string) domain.LedgerEntry {
	return domain.LedgerEntry{
		ID:                uuid.NewString(),
		SenderAccountID:   from,
		ReceiverAccountID: to,
		Amount:            decimal.RequireFromString(amount),
		Kind:              domain.KindTransfer,
		CreatedAt:         time.Now().UTC().Truncate(time.Microsecond),
		IdempotencyKey:    key,
	}
}

func TestAppend(t *testing.T) {
	testCases := []struct {
		name    string
		entry   func(t *testing.T, tx *sql.Tx) domain.LedgerEntry
		wantErr error
	}{
		{
			name: "OK",
			entry: func(t *testing.T, tx *sql.Tx) domain.LedgerEntry {
				a := integrationtest.SeedAccount(t, tx, "0")
				b := integrationtest.SeedAccount(t, tx, "0")

				return transferEntry(a.ID, b.ID, "10.50", "")
			},
		},
		{
			name: "ErrAccountNotFound",
			entry: func(t *testing.T, tx *sql.Tx) domain.LedgerEntry {
				a := integrationtest.SeedAccount(t, tx, "0")

				return transferEntry(a.ID, randompkg.AccountID(), "1", "")
			},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name: "ErrInvalidAmount",
			entry: func(t *testing.T, tx *sql.Tx) domain.LedgerEntry {
				a := integrationtest.SeedAccount(t, tx, "0")
				b := integrationtest.SeedAccount(t, tx, "0")

				return transferEntry(a.ID, b.ID, "0", "")
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "ErrSelfTransfer",
			entry: func(t *testing.T, tx *sql.Tx) domain.LedgerEntry {
				a := integrationtest.SeedAccount(t, tx, "0")

				return transferEntry(a.ID, a.ID, "1", "")
			},
			wantErr: domain.ErrSelfTransfer,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tx := integrationtest.SetupTX(t, dbDriver, dbSource)
			repo := entryrepo.NewRepoPGS(tx)
			want := tc.entry(t, tx)

			got, err := repo.Append(ctx, want)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)

			compareDecimals := cmp.Comparer(func(x, y decimal.Decimal) bool { return x.Equal(y) })
			compareCreatedAt := cmpopts.EquateApproxTime(time.Millisecond)
			if diff := cmp.Diff(want, got, compareDecimals, compareCreatedAt); diff != "" {
				t.Errorf("repo.Append(ctx, %+v) returned unexpected difference (-want +got):\n%s", want, diff)
			}

			stored, err := repo.Get(ctx, want.ID)
			require.NoError(t, err)
			require.Equal(t, got.ID, stored.ID)
		})
	}
}

func TestAppendDuplicateKey(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := entryrepo.NewRepoPGS(tx)

	a := integrationtest.SeedAccount(t, tx, "0")
	b := integrationtest.SeedAccount(t, tx, "0")

	key := uuid.NewString()

	first, err := repo.Append(ctx, transferEntry(a.ID, b.ID, "5", key))
	require.NoError(t, err)

	got, err := repo.Append(ctx, transferEntry(a.ID, b.ID, "7", key))
	require.ErrorIs(t, err, domain.ErrDuplicateIdempotencyKey)
	require.Equal(t, first.ID, got.ID)
	require.True(t, got.Amount.Equal(decimal.NewFromInt(5)))

	byKey, err := repo.GetByKey(ctx, key)
	require.NoError(t, err)
	require.Equal(t, first.ID, byKey.ID)

	_, err = repo.GetByKey(ctx, "")
	require.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestList(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := entryrepo.NewRepoPGS(tx)

	a := integrationtest.SeedAccount(t, tx, "0")
	b := integrationtest.SeedAccount(t, tx, "0")
	c := integrationtest.SeedAccount(t, tx, "0")

	var appended []domain.LedgerEntry

	for _, e := range []domain.LedgerEntry{
		transferEntry(a.ID, b.ID, "1", ""),
		transferEntry(b.ID, a.ID, "2", ""),
		transferEntry(b.ID, c.ID, "3", ""),
		transferEntry(c.ID, a.ID, "4", ""),
	} {
		got, err := repo.Append(ctx, e)
		require.NoError(t, err)

		appended = append(appended, got)
	}

	page, err := repo.List(ctx, domain.ListEntriesParams{AccountID: a.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, appended[3].ID, page[0].ID)
	require.Equal(t, appended[1].ID, page[1].ID)

	page, err = repo.List(ctx, domain.ListEntriesParams{AccountID: a.ID, BeforeID: page[1].ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, appended[0].ID, page[0].ID)

	page, err = repo.List(ctx, domain.ListEntriesParams{AccountID: a.ID, Since: time.Now().Add(time.Hour), Limit: 10})
	require.NoError(t, err)
	require.Empty(t, page)
}
