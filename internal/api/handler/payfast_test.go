package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stanleykwembe/brilltech-mega/internal/model"
	"github.com/stanleykwembe/brilltech-mega/internal/pkg/payfast"
	"github.com/stanleykwembe/brilltech-mega/internal/repository"
	"github.com/stanleykwembe/brilltech-mega/internal/service"
	"github.com/stanleykwembe/brilltech-mega/internal/testutil"
)

type payfastFixture struct {
	handler *PayFastHandler
	subSvc  *service.SubscriptionService
	txnRepo *repository.TransactionRepository
	db      *gorm.DB
}

func setupPayFastHandler(t *testing.T) *payfastFixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	confirmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("VALID"))
	}))
	t.Cleanup(confirmSrv.Close)

	// ITN deliveries in these tests come from 192.0.2.0/24 via RemoteAddr.
	client, err := payfast.NewClient(confirmSrv.URL, []string{"192.0.2.0/24"}, 2*time.Second)
	require.NoError(t, err)

	cfg := testAppConfig()
	txnRepo := repository.NewTransactionRepository(db)
	subSvc := service.NewSubscriptionService(
		repository.NewSubscriptionRepository(db),
		repository.NewPlanRepository(db, nil),
		txnRepo,
		cfg,
		zap.NewNop(),
	)
	paymentService := service.NewPaymentService(txnRepo, subSvc, client, cfg, zap.NewNop())

	return &payfastFixture{
		handler: NewPayFastHandler(paymentService, zap.NewNop()),
		subSvc:  subSvc,
		txnRepo: txnRepo,
		db:      db,
	}
}

func (f *payfastFixture) postNotify(t *testing.T, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	router := gin.New()
	router.POST("/payfast/notify", f.handler.Notify)

	req := httptest.NewRequest("POST", "/payfast/notify", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "192.0.2.44:39000"

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func signedITN(txn *model.PaymentTransaction) []byte {
	params := map[string]string{
		"merchant_id":    "10000100",
		"m_payment_id":   txn.MerchantReference,
		"pf_payment_id":  "PF-9001",
		"payment_status": payfast.StatusComplete,
		"amount_gross":   "250.00",
		"amount_fee":     "-5.75",
		"amount_net":     "244.25",
	}
	params["signature"] = payfast.Sign(params, "jt7NOE43FZPn")

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return []byte(values.Encode())
}

func TestPayFastHandler_Notify_ActivatesSubscription(t *testing.T) {
	f := setupPayFastHandler(t)

	user := testutil.TestUser(t, f.db)
	plan := testutil.TestPlan(t, f.db)
	sub := testutil.TestSubscription(t, f.db, user.ID, plan.ID, testutil.WithStatus(model.SubscriptionPending))
	txn := testutil.TestTransaction(t, f.db, user.ID, plan.ID, sub.ID, testutil.WithAmountGross(25000))

	w := f.postNotify(t, signedITN(txn))

	// The gateway contract: 200, empty body, always.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.Bytes())

	stored, err := f.txnRepo.GetByMerchantReference(txn.MerchantReference)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionConfirmed, stored.Status)

	current, err := f.subSvc.Current(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionActive, current.Status)
}

func TestPayFastHandler_Notify_ReplaySettlesOnce(t *testing.T) {
	f := setupPayFastHandler(t)

	user := testutil.TestUser(t, f.db)
	plan := testutil.TestPlan(t, f.db)
	sub := testutil.TestSubscription(t, f.db, user.ID, plan.ID, testutil.WithStatus(model.SubscriptionPending))
	txn := testutil.TestTransaction(t, f.db, user.ID, plan.ID, sub.ID, testutil.WithAmountGross(25000))

	body := signedITN(txn)
	first := f.postNotify(t, body)
	second := f.postNotify(t, body)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Empty(t, second.Body.Bytes())

	stored, err := f.txnRepo.GetByMerchantReference(txn.MerchantReference)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionConfirmed, stored.Status)
}

func TestPayFastHandler_Notify_RejectedStillAnswers200(t *testing.T) {
	f := setupPayFastHandler(t)

	w := f.postNotify(t, []byte("m_payment_id=SUB-unknown&signature=deadbeef"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestPayFastHandler_Notify_EmptyBody(t *testing.T) {
	f := setupPayFastHandler(t)

	w := f.postNotify(t, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.Bytes())
}
