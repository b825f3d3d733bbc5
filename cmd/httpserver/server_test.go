package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-wallet/cmd/httpserver"
	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/memstore"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/pkg/configpkg"
	"github.com/go-petr/pet-wallet/pkg/randompkg"
	"github.com/go-petr/pet-wallet/pkg/web"
)

func testConfig() configpkg.Config {
	return configpkg.Config{
		DBDriver:            "memory",
		TokenType:           "paseto",
		TokenSymmetricKey:   randompkg.String(32),
		AccessTokenDuration: time.Minute,
		RateLimitPerMinute:  100,
		MaxCommitRetries:    3,
		RetryBaseDelay:      time.Millisecond,
		LimitTimezone:       "UTC",
		TransferTxCap:       "500",
		TransferDailyCap:    "1000",
		RechargeTxCap:       "1000",
	}
}

type client struct {
	t      *testing.T
	server *httpserver.Server
}

func newClient(t *testing.T, config configpkg.Config, cache *redis.Client) (client, *memstore.Store) {
	t.Helper()

	store := memstore.New()

	server, err := httpserver.New(httpserver.MemoryStorage(store), cache, zerolog.Nop(), config)
	require.NoError(t, err)

	return client{t: t, server: server}, store
}

const testUserAgent = "wallet-web/1.0 (Linux x86_64)"

func (c client) do(method, target string, body any, accountID string, out any) int {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}

	request, err := http.NewRequest(method, target, &buf)
	require.NoError(c.t, err)
	request.Header.Set("User-Agent", testUserAgent)

	if accountID != "" {
		err = middleware.AddAuthorization(request, c.server.TokenMaker, middleware.AuthTypeBearer, accountID, time.Minute)
		require.NoError(c.t, err)
	}

	recorder := httptest.NewRecorder()
	c.server.ServeHTTP(recorder, request)

	if out != nil {
		require.NoError(c.t, json.NewDecoder(recorder.Body).Decode(out))
	}

	return recorder.Code
}

type accountResponse struct {
	Data struct {
		Account domain.Account `json:"account"`
	} `json:"data"`
}

type entryResponse struct {
	Data struct {
		Entry domain.LedgerEntry `json:"entry"`
	} `json:"data"`
}

func (c client) provision(name, email string) domain.Account {
	c.t.Helper()

	id := randompkg.AccountID()

	var res accountResponse
	code := c.do(http.MethodPost, "/accounts", map[string]string{"display_name": name, "email": email}, id, &res)
	require.Equal(c.t, http.StatusCreated, code)

	return res.Data.Account
}

func (c client) balance(accountID string) decimal.Decimal {
	c.t.Helper()

	var res accountResponse
	require.Equal(c.t, http.StatusOK, c.do(http.MethodGet, "/accounts/me", nil, accountID, &res))

	return res.Data.Account.Balance
}

func TestWalletFlow(t *testing.T) {
	c, store := newClient(t, testConfig(), nil)

	alice := c.provision("Alice Doe", "alice@example.com")
	bob := c.provision("Bob Roe", "bob@example.com")

	var recharge entryResponse
	code := c.do(http.MethodPost, "/recharges", map[string]string{"amount": "100.00", "idempotency_key": "r-1"}, alice.ID, &recharge)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, domain.KindRecharge, recharge.Data.Entry.Kind)

	var recipient struct {
		Data domain.Recipient `json:"data"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/recipients?q=bob", nil, alice.ID, &recipient))
	require.Equal(t, bob.ID, recipient.Data.AccountID)

	var transfer entryResponse
	code = c.do(http.MethodPost, "/transfers", map[string]string{"recipient": "BOB@example.com", "amount": "30.25"}, alice.ID, &transfer)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, bob.ID, transfer.Data.Entry.ReceiverAccountID)

	require.True(t, decimal.RequireFromString("69.75").Equal(c.balance(alice.ID)))
	require.True(t, decimal.RequireFromString("30.25").Equal(c.balance(bob.ID)))
	require.True(t, decimal.RequireFromString("100").Equal(store.TotalBalance()))

	var errRes web.Response
	code = c.do(http.MethodPost, "/recharges", map[string]string{"amount": "1500.00"}, alice.ID, &errRes)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, domain.KindLimitExceeded, errRes.Error.Kind)

	code = c.do(http.MethodPost, "/transfers", map[string]string{"recipient": "alice@example.com", "amount": "31"}, bob.ID, &errRes)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, domain.KindInsufficientFunds, errRes.Error.Kind)

	code = c.do(http.MethodPost, "/transfers", map[string]string{"recipient": "bob@example.com", "amount": "1"}, bob.ID, &errRes)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, domain.KindValidation, errRes.Error.Kind)

	var entries struct {
		Data struct {
			Entries    []domain.LedgerEntry `json:"entries"`
			NextCursor string               `json:"next_cursor"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/entries?limit=1", nil, alice.ID, &entries))
	require.Len(t, entries.Data.Entries, 1)
	require.Equal(t, transfer.Data.Entry.ID, entries.Data.Entries[0].ID)

	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/entries?limit=1&before_id="+entries.Data.NextCursor, nil, alice.ID, &entries))
	require.Len(t, entries.Data.Entries, 1)
	require.Equal(t, recharge.Data.Entry.ID, entries.Data.Entries[0].ID)

	var stats struct {
		Data struct {
			Statistics domain.Statistics `json:"statistics"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/statistics?months=1", nil, alice.ID, &stats))
	require.True(t, decimal.RequireFromString("100").Equal(stats.Data.Statistics.TotalIncome))
	require.True(t, decimal.RequireFromString("30.25").Equal(stats.Data.Statistics.TotalExpenses))

	var activity struct {
		Data struct {
			Activity []domain.Activity `json:"activity"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/activity", nil, bob.ID, &activity))
	require.Len(t, activity.Data.Activity, 2)

	for _, a := range activity.Data.Activity {
		require.Equal(t, domain.ActivityFailed, a.Status)
		require.Equal(t, testUserAgent, a.Device)
	}
}

func TestRechargeReplay(t *testing.T) {
	c, _ := newClient(t, testConfig(), nil)

	alice := c.provision("Alice Doe", "alice@example.com")

	var first, second entryResponse
	body := map[string]string{"amount": "10", "idempotency_key": "same"}

	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/recharges", body, alice.ID, &first))
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/recharges", body, alice.ID, &second))

	require.Equal(t, first.Data.Entry.ID, second.Data.Entry.ID)
	require.True(t, decimal.NewFromInt(10).Equal(c.balance(alice.ID)))
}

func TestUnauthorized(t *testing.T) {
	c, _ := newClient(t, testConfig(), nil)

	var res web.Response
	code := c.do(http.MethodGet, "/accounts/me", nil, "", &res)
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, web.KindUnauthorized, res.Error.Kind)
}

func TestTransfersRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	config := testConfig()
	config.RateLimitPerMinute = 2

	c, _ := newClient(t, config, cache)

	alice := c.provision("Alice Doe", "alice@example.com")
	body := map[string]string{"amount": "1"}

	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/recharges", body, alice.ID, nil))
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/recharges", body, alice.ID, nil))
	require.Equal(t, http.StatusTooManyRequests, c.do(http.MethodPost, "/recharges", body, alice.ID, nil))

	// reads are not limited
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/accounts/me", nil, alice.ID, nil))
}

func TestNewInvalidConfig(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(c *configpkg.Config)
	}{
		{name: "ShortKey", modify: func(c *configpkg.Config) { c.TokenSymmetricKey = "short" }},
		{name: "BadCap", modify: func(c *configpkg.Config) { c.TransferDailyCap = "lots" }},
		{name: "BadTokenType", modify: func(c *configpkg.Config) { c.TokenType = "saml" }},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			config := testConfig()
			tc.modify(&config)

			_, err := httpserver.New(httpserver.MemoryStorage(memstore.New()), nil, zerolog.Nop(), config)
			require.Error(t, err)
		})
	}
}
