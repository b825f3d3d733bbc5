package historydelivery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/pkg/randompkg"
	"github.com/go-petr/pet-wallet/pkg/tokenpkg"
)

type fixture struct {
	server     *gin.Engine
	tokenMaker tokenpkg.Maker
	service    *MockService
	activity   *MockActivityLister
}

func setup(t *testing.T) fixture {
	t.Helper()

	tokenMaker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	activity := NewMockActivityLister(ctrl)
	handler := NewHandler(service, activity)

	gin.SetMode(gin.ReleaseMode)
	server := gin.New()

	auth := server.Group("/").Use(middleware.AuthMiddleware(tokenMaker))
	auth.GET("/entries", handler.ListEntries)
	auth.GET("/statistics", handler.Statistics)
	auth.GET("/activity", handler.Activity)

	return fixture{server: server, tokenMaker: tokenMaker, service: service, activity: activity}
}

func (f fixture) get(t *testing.T, target, accountID string) *httptest.ResponseRecorder {
	t.Helper()

	request, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	require.NoError(t, middleware.AddAuthorization(request, f.tokenMaker, middleware.AuthTypeBearer, accountID, time.Minute))

	recorder := httptest.NewRecorder()
	f.server.ServeHTTP(recorder, request)

	return recorder
}

func TestListEntriesAPI(t *testing.T) {
	accountID := randompkg.AccountID()

	entries := []domain.LedgerEntry{
		{ID: "e2", ReceiverAccountID: accountID, Amount: decimal.NewFromInt(5), Kind: domain.KindRecharge},
		{ID: "e1", SenderAccountID: accountID, ReceiverAccountID: "b", Amount: decimal.NewFromInt(3), Kind: domain.KindTransfer},
	}

	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name       string
		query      string
		buildStubs func(service *MockService)
		wantStatus int
		wantNext   string
	}{
		{
			name:  "OK",
			query: "?limit=2&before_id=e3&since=2024-03-01T00:00:00Z",
			buildStubs: func(service *MockService) {
				service.EXPECT().List(gomock.Any(), gomock.Any()).Times(1).
					DoAndReturn(func(_ interface{}, arg domain.ListEntriesParams) ([]domain.LedgerEntry, error) {
						require.Equal(t, accountID, arg.AccountID)
						require.Equal(t, "e3", arg.BeforeID)
						require.EqualValues(t, 2, arg.Limit)
						require.True(t, since.Equal(arg.Since))

						return entries, nil
					})
			},
			wantStatus: http.StatusOK,
			wantNext:   "e1",
		},
		{
			name:  "Empty",
			query: "",
			buildStubs: func(service *MockService) {
				service.EXPECT().List(gomock.Any(), gomock.Any()).Times(1).Return(nil, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "LimitTooLarge",
			query: "?limit=1000",
			buildStubs: func(service *MockService) {
				service.EXPECT().List(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "BadSince",
			query: "?since=yesterday",
			buildStubs: func(service *MockService) {
				service.EXPECT().List(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "PersistenceFailure",
			query: "",
			buildStubs: func(service *MockService) {
				service.EXPECT().List(gomock.Any(), gomock.Any()).Times(1).Return(nil, domain.ErrPersistence)
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			f := setup(t)
			tc.buildStubs(f.service)

			recorder := f.get(t, "/entries"+tc.query, accountID)
			require.Equal(t, tc.wantStatus, recorder.Code)

			if tc.wantStatus != http.StatusOK {
				return
			}

			var got entriesResponse
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
			require.NotNil(t, got.Data.Entries)
			require.Equal(t, tc.wantNext, got.Data.NextCursor)
		})
	}
}

func TestStatisticsAPI(t *testing.T) {
	accountID := randompkg.AccountID()

	stats := domain.Statistics{
		Months: []domain.MonthSummary{
			{Month: "2024-03", Income: decimal.NewFromInt(10), Expenses: decimal.NewFromInt(4)},
		},
		TotalIncome:   decimal.NewFromInt(10),
		TotalExpenses: decimal.NewFromInt(4),
	}

	testCases := []struct {
		name       string
		query      string
		buildStubs func(service *MockService)
		wantStatus int
	}{
		{
			name:  "OK",
			query: "?months=1",
			buildStubs: func(service *MockService) {
				service.EXPECT().Statistics(gomock.Any(), accountID, 1).Times(1).Return(stats, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "DefaultMonths",
			query: "",
			buildStubs: func(service *MockService) {
				service.EXPECT().Statistics(gomock.Any(), accountID, 0).Times(1).Return(stats, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "TooManyMonths",
			query: "?months=25",
			buildStubs: func(service *MockService) {
				service.EXPECT().Statistics(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			f := setup(t)
			tc.buildStubs(f.service)

			recorder := f.get(t, "/statistics"+tc.query, accountID)
			require.Equal(t, tc.wantStatus, recorder.Code)

			if tc.wantStatus != http.StatusOK {
				return
			}

			var got statisticsResponse
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
			require.Len(t, got.Data.Statistics.Months, 1)
			require.True(t, got.Data.Statistics.TotalIncome.Equal(stats.TotalIncome))
		})
	}
}

func TestActivityAPI(t *testing.T) {
	accountID := randompkg.AccountID()

	activity := []domain.Activity{{
		ID:        "a1",
		AccountID: accountID,
		Action:    domain.KindTransfer,
		Status:    domain.ActivityFailed,
		Detail:    string(domain.KindInsufficientFunds),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}}

	f := setup(t)
	f.activity.EXPECT().List(gomock.Any(), accountID, int32(5)).Times(1).Return(activity, nil)

	recorder := f.get(t, "/activity?limit=5", accountID)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got activityResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
	require.Equal(t, activity, got.Data.Activity)
}
