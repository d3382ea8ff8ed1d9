package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gtclicks/settlement-service/internal/ledger"
	"github.com/gtclicks/settlement-service/internal/withdrawals"
	pkgauth "github.com/gtclicks/settlement-service/pkg/auth"
	"github.com/gtclicks/settlement-service/pkg/config"
	"github.com/gtclicks/settlement-service/pkg/db/models"
	"github.com/gtclicks/settlement-service/pkg/enums"
	"github.com/gtclicks/settlement-service/pkg/logger"
	"github.com/gtclicks/settlement-service/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubLedgerService struct{}

func (stubLedgerService) Credit(context.Context, *gorm.DB, ledger.CreditInput) (*models.LedgerEntry, error) {
	return nil, nil
}

func (stubLedgerService) Reserve(context.Context, *gorm.DB, ledger.HoldInput) (*models.LedgerEntry, error) {
	return nil, nil
}

func (stubLedgerService) Release(context.Context, *gorm.DB, ledger.HoldInput) (*models.LedgerEntry, error) {
	return nil, nil
}

func (stubLedgerService) Settle(context.Context, *gorm.DB, ledger.HoldInput) (*models.LedgerEntry, error) {
	return nil, nil
}

func (stubLedgerService) Reverse(context.Context, *gorm.DB, ledger.ReversalInput) (*models.LedgerEntry, error) {
	return nil, nil
}

func (stubLedgerService) GetBalance(_ context.Context, photographerID uuid.UUID) (*models.Balance, error) {
	return &models.Balance{PhotographerID: photographerID}, nil
}

func (stubLedgerService) ListEntries(context.Context, uuid.UUID, pagination.Params) ([]models.LedgerEntry, string, error) {
	return nil, "", nil
}

func (stubLedgerService) VerifyBalance(context.Context, uuid.UUID) error {
	return nil
}

type stubWithdrawalsService struct{}

func (stubWithdrawalsService) Request(_ context.Context, input withdrawals.RequestInput) (*models.WithdrawalRequest, error) {
	return &models.WithdrawalRequest{
		ID:             uuid.New(),
		PhotographerID: input.PhotographerID,
		AmountCents:    input.AmountCents,
		Status:         enums.WithdrawalStatusPending,
		RequestedAt:    time.Now(),
	}, nil
}

func (stubWithdrawalsService) Approve(context.Context, uuid.UUID) (*models.WithdrawalRequest, error) {
	return &models.WithdrawalRequest{Status: enums.WithdrawalStatusApproved}, nil
}

func (stubWithdrawalsService) MarkPaid(context.Context, uuid.UUID) (*models.WithdrawalRequest, error) {
	return &models.WithdrawalRequest{Status: enums.WithdrawalStatusPaid}, nil
}

func (stubWithdrawalsService) Reject(context.Context, uuid.UUID, string) (*models.WithdrawalRequest, error) {
	return &models.WithdrawalRequest{Status: enums.WithdrawalStatusRejected}, nil
}

func (stubWithdrawalsService) Get(_ context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	return &models.WithdrawalRequest{ID: id, Status: enums.WithdrawalStatusPending}, nil
}

func (stubWithdrawalsService) ListByPhotographer(context.Context, uuid.UUID, pagination.Params) ([]models.WithdrawalRequest, string, error) {
	return nil, "", nil
}

func (stubWithdrawalsService) ListByStatus(context.Context, enums.WithdrawalStatus, pagination.Params) ([]models.WithdrawalRequest, string, error) {
	return nil, "", nil
}

type stubOrdersService struct{}

func (stubOrdersService) Get(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID, BuyerID: uuid.New(), Status: enums.OrderStatusPaid}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.App{Name: "settlement-service", Env: "test"},
		JWT: config.JWT{
			Secret:   "router-test-secret",
			Issuer:   "gtclicks",
			Audience: "settlement",
			TTL:      time.Hour,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	return NewRouter(Deps{
		Config:      cfg,
		Logger:      logger.New(logger.Options{ServiceName: "router-test", Level: zerolog.ErrorLevel}),
		DB:          stubPinger{},
		Ledger:      stubLedgerService{},
		Withdrawals: stubWithdrawalsService{},
		Orders:      stubOrdersService{},
	})
}

func mintToken(t *testing.T, cfg *config.Config, role enums.ActorRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	require.NoError(t, err)
	return token
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, testConfig())

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterRequiresAuth(t *testing.T) {
	router := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterServesAuthenticatedRoutes(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	token := mintToken(t, cfg, enums.RolePhotographer)

	for _, path := range []string{"/api/v1/balance", "/api/v1/ledger", "/api/v1/withdrawals"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterGuardsAdminRoutes(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	photographer := mintToken(t, cfg, enums.RolePhotographer)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/withdrawals", nil)
	req.Header.Set("Authorization", "Bearer "+photographer)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	admin := mintToken(t, cfg, enums.RoleAdmin)
	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/withdrawals", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterSkipsUnconfiguredWebhooks(t *testing.T) {
	router := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
