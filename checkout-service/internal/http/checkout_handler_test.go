package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	d "github.com/sheldonroth/sheldonroth/checkout-service/domain"
	"github.com/sheldonroth/sheldonroth/checkout-service/internal/processor"
	"github.com/sheldonroth/sheldonroth/checkout-service/internal/service"
	"github.com/sheldonroth/sheldonroth/pkg/logger"
	"github.com/stretchr/testify/assert"
)

type ProcessorMock struct {
	session *processor.Session
	err     error
}

func (m ProcessorMock) CreateSession(_ context.Context, _ *processor.SessionParams) (*processor.Session, error) {
	return m.session, m.err
}

type ServiceMock struct {
	resp *d.CheckoutResponse
	err  error
}

func (m ServiceMock) CreateSession(_ context.Context, _ *d.CheckoutRequest) (*d.CheckoutResponse, error) {
	return m.resp, m.err
}

func newRouter(svc service.CheckoutService) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/checkout", NewCheckoutHandler(svc, 5*time.Second, logger.Nop()).CreateSession)
	return r
}

func post(handler http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateSession_Success(t *testing.T) {
	svc := service.NewCheckoutService(ProcessorMock{
		session: &processor.Session{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"},
	}, nil, "", logger.Nop())

	rec := post(newRouter(svc), `{"items":[{"name":"Gemsbok in the Mist - Large","price":4500,"quantity":1}]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"sessionId":"cs_test_1","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`, rec.Body.String())
}

func TestCreateSession_InvalidItems(t *testing.T) {
	svc := service.NewCheckoutService(ProcessorMock{}, nil, "", logger.Nop())
	router := newRouter(svc)

	for _, body := range []string{
		`{}`,
		`{"items":[]}`,
		`{"items":"gemsbok"}`,
		`{"items":[{"name":"a","price":10,"quantity":0}]}`,
		`not json`,
	} {
		rec := post(router, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"Invalid items"}`, rec.Body.String(), body)
	}
}

func TestCreateSession_MissingKeyIsServerError(t *testing.T) {
	svc := service.NewCheckoutService(processor.NewStripeProcessor("", nil), nil, "", logger.Nop())

	rec := post(newRouter(svc), `{"items":[{"name":"Gemsbok","price":45,"quantity":1}]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"STRIPE_SECRET_KEY is not configured"}`, rec.Body.String())
}

func TestCreateSession_ProcessorErrorMessage(t *testing.T) {
	rec := post(newRouter(ServiceMock{err: errors.New("Invalid integer: abc")}), `{"items":[{"name":"a","price":1,"quantity":1}]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid integer: abc"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
