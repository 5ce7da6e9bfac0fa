package payment

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/gateway"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/metrics"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories/cache"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories/memstore"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/storage"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/workflow"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const signingSecret = "whsec_test"

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (gateway.Order, error) {
	args := m.Called(amount.String(), currency, metadata["applicationId"])
	return args.Get(0).(gateway.Order), args.Error(1)
}

func (m *MockGateway) VerifySignature(orderRef, paymentRef, signature string) bool {
	return gateway.Verify(signingSecret, orderRef, paymentRef, signature)
}

func (m *MockGateway) PublicKey() string { return "pk_test" }

type fixture struct {
	svc     *service
	store   *memstore.Store
	gw      *MockGateway
	disk    *storage.LocalStorage
	student models.Identity
	app     *models.Applicant
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	disk, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)
	engine := workflow.New(workflow.Config{})

	year, pct := 2025, 91.0
	dob := time.Date(2007, 1, 1, 0, 0, 0, 0, time.UTC)
	draft := workflow.NewDraft("asha@example.com", "Asha Patel", "9876543210")
	a, err := engine.SubmitApplication(draft, workflow.Fields{
		DateOfBirth: &dob, Gender: "female", Address: "12 Temple Road", Qualification: "12th",
		BoardUniversity: "GSEB", PassingYear: &year, Percentage: &pct, ProgramType: "UG", CourseName: "BCA",
	}, workflow.Documents{Photo: "/uploads/p.png", IDProof: "/uploads/i.png", Certificate: "/uploads/c.png"}, 1, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, store.Applicants().Create(ctx, &a))

	gw := new(MockGateway)
	svc := NewService(engine, store, store.Applicants(), store.Payments(), gw, disk, cache.NewLocalLocker(),
		zaptest.NewLogger(t), metrics.NoopCollector{}, Options{Fee: decimal.NewFromInt(500), Currency: "INR"}).(*service)

	return &fixture{
		svc:     svc,
		store:   store,
		gw:      gw,
		disk:    disk,
		student: models.Identity{Kind: models.KindStudent, ID: 1, Email: "asha@example.com"},
		app:     &a,
	}
}

func proof(t *testing.T) *storage.File {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("transactionProof", "receipt.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	f, err := storage.Validate("transactionProof", req.MultipartForm.File["transactionProof"][0], storage.PaymentProofLimit)
	require.NoError(t, err)
	return f
}

func (f *fixture) order(t *testing.T) *OrderView {
	t.Helper()
	f.gw.On("CreateOrder", "500", "INR", "SU202600001").
		Return(gateway.Order{Reference: "pi_1", ClientSecret: "pi_1_secret", Amount: 50000, Currency: "INR"}, nil).Once()
	view, err := f.svc.CreateGatewayOrder(context.Background(), f.student, "SU202600001")
	require.NoError(t, err)
	return view
}

func TestCreateGatewayOrder(t *testing.T) {
	f := newFixture(t)
	view := f.order(t)
	assert.Equal(t, &OrderView{
		OrderID: "pi_1", ClientSecret: "pi_1_secret", Amount: 50000, Currency: "INR",
		PublicKey: "pk_test", ApplicationID: "SU202600001",
	}, view)

	p, err := f.store.Payments().FindByReference(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, p.Status)
	f.gw.AssertExpectations(t)
}

func TestCreateGatewayOrder_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateGatewayOrder(ctx, models.Identity{Kind: models.KindStudent, Email: "mallory@example.com"}, "SU202600001")
	assert.ErrorIs(t, err, apperrors.ErrNotOwner)

	_, err = f.svc.CreateGatewayOrder(ctx, f.student, "SU209900009")
	assert.ErrorIs(t, err, apperrors.ErrApplicantNotFound)

	f.gw.On("CreateOrder", "500", "INR", "SU202600001").Return(gateway.Order{}, errors.New("stripe down")).Once()
	_, err = f.svc.CreateGatewayOrder(ctx, f.student, "")
	assert.ErrorContains(t, err, "stripe down")

	f.svc.gateway = nil
	_, err = f.svc.CreateGatewayOrder(ctx, f.student, "SU202600001")
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestConfirmGatewayPayment_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.order(t)
	in := ConfirmInput{OrderID: "pi_1", PaymentID: "ch_1", Signature: gateway.Sign(signingSecret, "pi_1", "ch_1")}

	a, p, err := f.svc.ConfirmGatewayPayment(ctx, f.student, in)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, a.PaymentStatus)
	assert.Equal(t, models.StatusUnderReview, a.Status)
	assert.Equal(t, models.PaymentStatusPaid, p.Status)

	a, p, err = f.svc.ConfirmGatewayPayment(ctx, f.student, in)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, a.PaymentStatus)
	assert.Equal(t, models.PaymentStatusPaid, p.Status)

	history, err := f.svc.History(ctx, f.student)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.PaymentStatusPaid, history[0].Status)

	_, err = f.svc.CreateGatewayOrder(ctx, f.student, "SU202600001")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyPaid)
}

func TestConfirmGatewayPayment_BadSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.order(t)

	_, _, err := f.svc.ConfirmGatewayPayment(ctx, f.student, ConfirmInput{OrderID: "pi_1", PaymentID: "ch_1", Signature: "forged"})
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	p, err := f.store.Payments().FindByReference(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, p.Status)

	a, err := f.store.Applicants().FindByID(ctx, f.app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, a.PaymentStatus)
	assert.Equal(t, models.StatusSubmitted, a.Status)
}

func TestSubmitManualTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.SubmitManualTransfer(ctx, f.student, TransferInput{ApplicationID: "SU202600001", Reference: "12345678901", Proof: proof(t)})
	de, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"utrNumber"}, de.FieldNames())
	entries, _ := os.ReadDir(f.disk.Dir())
	assert.Empty(t, entries, "rejected proof is removed")

	a, p, err := f.svc.SubmitManualTransfer(ctx, f.student, TransferInput{ApplicationID: "SU202600001", Reference: " 123456789012 ", Proof: proof(t)})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentUnderVerification, a.PaymentStatus)
	assert.Equal(t, "123456789012", a.TransferReference)
	assert.Equal(t, models.PaymentStatusUnderVerification, p.Status)
	assert.NotEmpty(t, p.ProofRef)

	stored, err := f.store.Applicants().FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Version, stored.Version)
	assert.Equal(t, workflow.ViewVerification, workflow.Project(stored).View)

	stored.Status = models.StatusAccepted
	stored.PaymentStatus = models.PaymentVerified
	require.NoError(t, f.store.Applicants().Save(ctx, stored))
	_, _, err = f.svc.SubmitManualTransfer(ctx, f.student, TransferInput{Reference: "123456789099"})
	assert.True(t, apperrors.IsConflict(err))
}

func TestHistory_NoApplication(t *testing.T) {
	f := newFixture(t)
	history, err := f.svc.History(context.Background(), models.Identity{Email: "new@example.com"})
	require.NoError(t, err)
	assert.Empty(t, history)
}
