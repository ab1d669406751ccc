package router

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Yvann20/Flask/internal/logger"
	"github.com/Yvann20/Flask/internal/models"
	mock_models "github.com/Yvann20/Flask/internal/models/mocks"
	"github.com/Yvann20/Flask/internal/services"
	"github.com/Yvann20/Flask/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const adminSubject = "42"

var authHeaders = map[string]string{
	"Authorization": "Bearer token",
	"Content-Type":  "application/json",
}

type routerMocks struct {
	orders   *mock_models.MockOrderService
	receipts *mock_models.MockReceiptService
	jwt      *mock_models.MockJWTService
}

func newTestServer(t *testing.T) (*httptest.Server, routerMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mocks := routerMocks{
		orders:   mock_models.NewMockOrderService(ctrl),
		receipts: mock_models.NewMockReceiptService(ctrl),
		jwt:      mock_models.NewMockJWTService(ctrl),
	}

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	testServer := httptest.NewServer(
		New(Config{AdminSubject: adminSubject}, mocks.orders, mocks.receipts, mocks.jwt, metrics).get(),
	)
	t.Cleanup(testServer.Close)

	return testServer, mocks
}

func tokenFor(subject string) *jwt.Token {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": subject})
}

func expectAdmin(mocks routerMocks) {
	mocks.jwt.EXPECT().ValidateToken("token").Return(tokenFor(adminSubject), nil)
}

func sampleOrder(id string) models.Order {
	created := time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC)
	return models.Order{
		ID:        id,
		Name:      "Maria Silva",
		Product:   "Bolsa",
		Value:     decimal.RequireFromString("100.00"),
		Discount:  decimal.RequireFromString("10.00"),
		Savings:   decimal.RequireFromString("90.00"),
		Status:    models.StatusPending,
		CreatedAt: utils.RFC3339Date{Time: created},
		UpdatedAt: utils.RFC3339Date{Time: created},
	}
}

func TestOpenRoutes(t *testing.T) {
	testServer, _ := newTestServer(t)

	res, body := utils.TestRequest(t, testServer, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", body)

	res, body = utils.TestRequest(t, testServer, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "# metrics", body)
}

func TestHealthReportsUnavailableDatabase(t *testing.T) {
	ctrl := gomock.NewController(t)
	config := Config{
		AdminSubject: adminSubject,
		Ready: func(context.Context) error {
			return errors.New("connection refused")
		},
	}

	testServer := httptest.NewServer(New(config,
		mock_models.NewMockOrderService(ctrl),
		mock_models.NewMockReceiptService(ctrl),
		mock_models.NewMockJWTService(ctrl),
		nil,
	).get())
	defer testServer.Close()

	res, body := utils.TestRequest(t, testServer, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	assert.Equal(t, "unavailable\n", body)
}

func TestAuthentication(t *testing.T) {
	testServer, mocks := newTestServer(t)

	testCases := []struct {
		testName        string
		headers         map[string]string
		test            func()
		expectedCode    int
		expectedMessage string
	}{
		{
			testName:        "Should require the Authorization header",
			expectedCode:    http.StatusUnauthorized,
			expectedMessage: "Cabeçalho Authorization obrigatório\n",
		},
		{
			testName:        "Should require a bearer token",
			headers:         map[string]string{"Authorization": "Basic abc"},
			expectedCode:    http.StatusUnauthorized,
			expectedMessage: "Token Bearer ausente\n",
		},
		{
			testName: "Should reject an expired token",
			headers:  map[string]string{"Authorization": "Bearer token"},
			test: func() {
				mocks.jwt.EXPECT().ValidateToken("token").Return(nil, services.ErrTokenIsExpired)
			},
			expectedCode:    http.StatusUnauthorized,
			expectedMessage: "Token expirado\n",
		},
		{
			testName: "Should reject an invalid token",
			headers:  map[string]string{"Authorization": "Bearer token"},
			test: func() {
				mocks.jwt.EXPECT().ValidateToken("token").Return(nil, services.ErrTokenIsInvalid)
			},
			expectedCode:    http.StatusUnauthorized,
			expectedMessage: "Token inválido\n",
		},
		{
			testName: "Should reject a token of another subject",
			headers:  map[string]string{"Authorization": "Bearer token"},
			test: func() {
				mocks.jwt.EXPECT().ValidateToken("token").Return(tokenFor("7"), nil)
			},
			expectedCode:    http.StatusForbidden,
			expectedMessage: "Acesso negado\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			if tc.test != nil {
				tc.test()
			}

			res, body := utils.TestRequest(t, testServer, http.MethodGet, "/api/orders/A1", tc.headers, nil)
			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, body)
		})
	}
}

func TestGetOrdersRoute(t *testing.T) {
	testServer, mocks := newTestServer(t)

	testCases := []struct {
		testName     string
		targetURL    string
		test         func()
		expectedCode int
		testBody     func(t *testing.T, body string)
	}{
		{
			testName:  "Should list recent orders",
			targetURL: "/api/orders",
			test: func() {
				mocks.orders.EXPECT().ListRecent(gomock.Any(), models.DefaultRecentLimit).Return([]models.Order{sampleOrder("A1")})
			},
			expectedCode: http.StatusOK,
			testBody: func(t *testing.T, body string) {
				assert.Contains(t, body, `"id":"A1"`)
				assert.Contains(t, body, `"status":"pendente"`)
				assert.Contains(t, body, `"savings":"90.00"`)
				assert.Contains(t, body, `"created_at":"2024-06-01T09:30:00Z"`)
			},
		},
		{
			testName:  "Should search and cap the limit",
			targetURL: "/api/orders?q=silva&limit=50",
			test: func() {
				mocks.orders.EXPECT().SearchOrders(gomock.Any(), "silva", models.DefaultSearchLimit).Return([]models.Order{sampleOrder("A1")})
			},
			expectedCode: http.StatusOK,
		},
		{
			testName:  "Should honour a smaller limit",
			targetURL: "/api/orders?limit=3",
			test: func() {
				mocks.orders.EXPECT().ListRecent(gomock.Any(), 3).Return([]models.Order{sampleOrder("A1")})
			},
			expectedCode: http.StatusOK,
		},
		{
			testName:     "Should reject a malformed limit",
			targetURL:    "/api/orders?limit=abc",
			expectedCode: http.StatusBadRequest,
		},
		{
			testName:  "Should answer 204 without results",
			targetURL: "/api/orders?q=nada",
			test: func() {
				mocks.orders.EXPECT().SearchOrders(gomock.Any(), "nada", models.DefaultSearchLimit).Return([]models.Order{})
			},
			expectedCode: http.StatusNoContent,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			expectAdmin(mocks)
			if tc.test != nil {
				tc.test()
			}

			res, body := utils.TestRequest(t, testServer, http.MethodGet, tc.targetURL, authHeaders, nil)
			assert.Equal(t, tc.expectedCode, res.StatusCode)
			if tc.testBody != nil {
				tc.testBody(t, body)
			}
		})
	}
}

func TestGetOrderRoute(t *testing.T) {
	testServer, mocks := newTestServer(t)

	order := sampleOrder("A1")

	expectAdmin(mocks)
	mocks.orders.EXPECT().GetOrderByID(gomock.Any(), "A1").Return(&order)
	res, body := utils.TestRequest(t, testServer, http.MethodGet, "/api/orders/A1", authHeaders, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
	assert.Contains(t, body, `"savings":"90.00"`)

	expectAdmin(mocks)
	mocks.orders.EXPECT().GetOrderByID(gomock.Any(), "missing").Return(nil)
	res, body = utils.TestRequest(t, testServer, http.MethodGet, "/api/orders/missing", authHeaders, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "Pedido não encontrado\n", body)
}

func TestGetReceiptRoute(t *testing.T) {
	testServer, mocks := newTestServer(t)

	order := sampleOrder("A1")

	expectAdmin(mocks)
	mocks.orders.EXPECT().GetOrderByID(gomock.Any(), "A1").Return(&order)
	mocks.receipts.EXPECT().Render(order).Return([]byte("%PDF-1.3"), nil)
	mocks.receipts.EXPECT().FileName(order).Return("comprovante_A1.pdf")

	res, body := utils.TestRequest(t, testServer, http.MethodGet, "/api/orders/A1/receipt", authHeaders, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/pdf", res.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="comprovante_A1.pdf"`, res.Header.Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3", body)

	expectAdmin(mocks)
	mocks.orders.EXPECT().GetOrderByID(gomock.Any(), "A1").Return(&order)
	mocks.receipts.EXPECT().Render(order).Return(nil, errors.New("boom"))

	res, _ = utils.TestRequest(t, testServer, http.MethodGet, "/api/orders/A1/receipt", authHeaders, nil)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}

func TestUpdateOrderStatusRoute(t *testing.T) {
	testServer, mocks := newTestServer(t)

	testCases := []struct {
		testName        string
		body            func() io.Reader
		test            func()
		expectedCode    int
		expectedMessage string
	}{
		{
			testName:        "Should reject an empty body",
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Erro ao interpretar JSON: unexpected end of JSON input\n",
		},
		{
			testName: "Should reject a body without status",
			body: func() io.Reader {
				return bytes.NewBufferString(`{}`)
			},
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Requisição sem o campo status\n",
		},
		{
			testName: "Should reject an unknown status",
			body: func() io.Reader {
				return bytes.NewBufferString(`{"status":"perdido"}`)
			},
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Status desconhecido: perdido\n",
		},
		{
			testName: "Should answer 422 when the update is refused",
			body: func() io.Reader {
				return bytes.NewBufferString(`{"status":"entregue"}`)
			},
			test: func() {
				mocks.orders.EXPECT().UpdateOrderStatus(gomock.Any(), "A1", models.StatusDelivered).Return(false)
			},
			expectedCode:    http.StatusUnprocessableEntity,
			expectedMessage: "Não foi possível atualizar o status do pedido\n",
		},
		{
			testName: "Should update the status",
			body: func() io.Reader {
				return bytes.NewBufferString(`{"status":"entregue"}`)
			},
			test: func() {
				mocks.orders.EXPECT().UpdateOrderStatus(gomock.Any(), "A1", models.StatusDelivered).Return(true)
			},
			expectedCode: http.StatusNoContent,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			var body io.Reader
			if tc.body != nil {
				body = tc.body()
			}

			expectAdmin(mocks)
			if tc.test != nil {
				tc.test()
			}

			res, mes := utils.TestRequest(t, testServer, http.MethodPatch, "/api/orders/A1/status", authHeaders, body)
			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, mes)
		})
	}
}

func TestUpdateOrderStatusLogsActor(t *testing.T) {
	previous := logger.Log
	t.Cleanup(func() { logger.Log = previous })

	core, logs := observer.New(zap.InfoLevel)
	logger.Log = zap.New(core)

	testServer, mocks := newTestServer(t)
	expectAdmin(mocks)
	mocks.orders.EXPECT().UpdateOrderStatus(gomock.Any(), "A1", models.StatusCancelled).Return(true)

	res, _ := utils.TestRequest(t, testServer, http.MethodPatch, "/api/orders/A1/status", authHeaders,
		bytes.NewBufferString(`{"status":"cancelado"}`))
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	entries := logs.FilterMessage("order status changed through api").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, adminSubject, fields["actor"])
	assert.Equal(t, "A1", fields["orderID"])
	assert.Equal(t, "cancelado", fields["status"])
}
