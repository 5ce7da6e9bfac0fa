package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/metrics"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories/cache"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories/memstore"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/admin"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/application"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/auth"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/payment"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/storage"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

var (
	student = models.Identity{Kind: models.KindStudent, ID: 1, Name: "Asha Patel", Email: "asha@example.com"}
	officer = models.Identity{Kind: models.KindAdmin, ID: 9, Name: "Admissions Office", Email: "office@example.com", Role: models.RoleAdmin}
)

// as stands in for the auth middleware.
func as(id models.Identity) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("identity", id)
		return c.Next()
	}
}

func newTestApp(t *testing.T) (*fiber.App, *memstore.Store) {
	t.Helper()
	log := zaptest.NewLogger(t)
	store := memstore.New()
	disk, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)
	engine := workflow.New(workflow.Config{})
	locker := cache.NewLocalLocker()

	appSvc := application.NewService(engine, store.Applicants(), store.Payments(), nil, disk, locker, log, metrics.NoopCollector{})
	paySvc := payment.NewService(engine, store, store.Applicants(), store.Payments(), nil, disk, locker, log,
		metrics.NoopCollector{}, payment.Options{Fee: decimal.NewFromInt(500), Currency: "INR"})
	adminSvc := admin.NewService(admin.Deps{
		Engine:     engine,
		Store:      store,
		Applicants: store.Applicants(),
		Payments:   store.Payments(),
		Storage:    disk,
		Locker:     locker,
		Log:        log,
	})

	ah := NewApplicationHandler(appSvc, log)
	ph := NewPaymentHandler(paySvc, log)
	adm := NewAdminHandler(adminSvc, log)

	app := fiber.New()
	app.Get("/api/applications/:applicationId/success", ah.Success)

	st := app.Group("/api", as(student))
	st.Get("/application/check-status", ah.CheckStatus)
	st.Post("/application/save-draft", ah.SaveDraft)
	st.Post("/application/submit", ah.Submit)
	st.Get("/application/status", ah.Status)
	st.Post("/payments/order", ph.CreateOrder)
	st.Post("/payments/utr", ph.SubmitTransfer)

	ad := app.Group("/admin", as(officer))
	ad.Get("/applicants", adm.ListApplicants)
	ad.Get("/applicants/export", adm.ExportApplicants)
	ad.Patch("/applicants/:id/status", adm.UpdateStatus)
	ad.Get("/payments/pending", adm.PendingPayments)
	ad.Patch("/payments/:id/verify", adm.VerifyPayment)
	return app, store
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, field := range files {
		part, err := w.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = part.Write(pngBytes)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, path, &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func data(body map[string]interface{}) map[string]interface{} {
	d, _ := body["data"].(map[string]interface{})
	return d
}

var profile = map[string]string{
	"fullName":        "Asha Patel",
	"phone":           "9876543210",
	"dateOfBirth":     "2007-05-02",
	"gender":          "female",
	"address":         "12 Temple Road, Ahmedabad",
	"qualification":   "12th",
	"boardUniversity": "GSEB",
	"passingYear":     "2025",
	"percentage":      "88.4",
	"programType":     "UG",
	"courseName":      "BSc Computer Science",
}

func TestApplicationFlow(t *testing.T) {
	app, store := newTestApp(t)

	code, body := do(t, app, httptest.NewRequest(fiber.MethodGet, "/api/application/check-status", nil))
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "new", data(body)["progress"].(map[string]interface{})["view"])

	code, body = do(t, app, multipartRequest(t, "/api/application/save-draft",
		map[string]string{"fullName": "Asha Patel", "currentStep": "3"}))
	require.Equal(t, fiber.StatusOK, code, body)
	draft := data(body)
	assert.Equal(t, float64(3), draft["currentStep"])
	assert.Equal(t, true, draft["isDraft"])
	assert.Nil(t, draft["applicationId"])

	code, body = do(t, app, multipartRequest(t, "/api/application/submit", map[string]string{"gender": "female"}))
	require.Equal(t, fiber.StatusBadRequest, code)
	fields := body["fields"].([]interface{})
	assert.Greater(t, len(fields), 1, "every missing field is listed")

	code, body = do(t, app, multipartRequest(t, "/api/application/submit", profile, "photo", "idProof", "certificate"))
	require.Equal(t, fiber.StatusCreated, code, body)
	submitted := data(body)
	assert.Equal(t, false, submitted["isDraft"])
	assert.Equal(t, "submitted", submitted["status"])
	appID, _ := submitted["applicationId"].(string)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z]{2}\d{4}\d{5}$`), appID)

	code, body = do(t, app, multipartRequest(t, "/api/payments/utr", map[string]string{"utrNumber": "12345678901"}))
	require.Equal(t, fiber.StatusBadRequest, code, body)

	code, body = do(t, app, multipartRequest(t, "/api/payments/utr", map[string]string{"utrNumber": "123456789012"}))
	require.Equal(t, fiber.StatusCreated, code, body)
	pay := data(body)["payment"].(map[string]interface{})
	assert.Equal(t, "under_verification", pay["status"])
	assert.Equal(t, "under_review", data(body)["application"].(map[string]interface{})["status"])

	code, body = do(t, app, httptest.NewRequest(fiber.MethodGet, "/admin/payments/pending", nil))
	require.Equal(t, fiber.StatusOK, code)
	pending := body["data"].([]interface{})
	require.Len(t, pending, 1)
	paymentID := uint(pending[0].(map[string]interface{})["payment"].(map[string]interface{})["ID"].(float64))

	code, body = do(t, app, jsonRequest(fiber.MethodPatch, fmt.Sprintf("/admin/payments/%d/verify", paymentID),
		`{"decision":"approve","note":"matched bank statement"}`))
	require.Equal(t, fiber.StatusOK, code, body)
	assert.Equal(t, "verified", data(body)["payment"].(map[string]interface{})["status"])
	assert.Equal(t, "verified", data(body)["application"].(map[string]interface{})["paymentStatus"])

	code, body = do(t, app, httptest.NewRequest(fiber.MethodGet, "/api/applications/"+appID+"/success", nil))
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "Asha Patel", data(body)["fullName"])

	stored, err := store.Applicants().FindByApplicationID(context.Background(), appID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentVerified, stored.PaymentStatus)
}

func TestAdminReview_TerminalStateIsImmutable(t *testing.T) {
	app, _ := newTestApp(t)

	code, body := do(t, app, multipartRequest(t, "/api/application/submit", profile, "photo", "idProof", "certificate"))
	require.Equal(t, fiber.StatusCreated, code, body)
	id := uint(data(body)["ID"].(float64))

	path := fmt.Sprintf("/admin/applicants/%d/status", id)
	code, body = do(t, app, jsonRequest(fiber.MethodPatch, path, `{"status":"accepted","note":"strong profile"}`))
	require.Equal(t, fiber.StatusOK, code, body)
	assert.Equal(t, "accepted", data(body)["status"])

	code, body = do(t, app, jsonRequest(fiber.MethodPatch, path, `{"status":"rejected"}`))
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "TERMINAL_STATE", body["code"])

	code, _ = do(t, app, multipartRequest(t, "/api/payments/utr", map[string]string{"utrNumber": "123456789012"}))
	assert.Equal(t, fiber.StatusConflict, code)
}

func TestAdminListAndExport(t *testing.T) {
	app, _ := newTestApp(t)
	code, _ := do(t, app, multipartRequest(t, "/api/application/submit", profile, "photo", "idProof", "certificate"))
	require.Equal(t, fiber.StatusCreated, code)

	code, body := do(t, app, httptest.NewRequest(fiber.MethodGet, "/admin/applicants?search=asha&limit=5", nil))
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, body["data"], 1)
	assert.Equal(t, float64(1), body["pagination"].(map[string]interface{})["total"])

	code, _ = do(t, app, httptest.NewRequest(fiber.MethodGet, "/admin/applicants?status=bogus", nil))
	assert.Equal(t, fiber.StatusBadRequest, code)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/admin/applicants/export", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment")
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Name,Email,Phone,Application ID"))
}

func TestCreateOrder_NoGateway(t *testing.T) {
	app, _ := newTestApp(t)
	code, _ := do(t, app, jsonRequest(fiber.MethodPost, "/api/payments/order", `{}`))
	assert.Equal(t, fiber.StatusServiceUnavailable, code)
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperrors.Missing("fullName"), fiber.StatusBadRequest},
		{"conflict", apperrors.ErrAlreadyPaid, fiber.StatusConflict},
		{"not found", apperrors.ErrApplicantNotFound, fiber.StatusNotFound},
		{"authorization", apperrors.ErrNotOwner, fiber.StatusForbidden},
		{"credentials", &auth.CredentialsError{Remaining: 2}, fiber.StatusUnauthorized},
		{"locked", &auth.LockedError{Minutes: 90}, fiber.StatusLocked},
		{"gateway", payment.ErrGatewayUnavailable, fiber.StatusServiceUnavailable},
		{"wrapped domain", fmt.Errorf("save: %w", apperrors.ErrVersionConflict), fiber.StatusConflict},
		{"unknown", errors.New("disk on fire"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respondError(c, zap.NewNop(), tt.err) })

			code, body := do(t, app, httptest.NewRequest(fiber.MethodGet, "/", nil))
			assert.Equal(t, tt.want, code)
			assert.Equal(t, false, body["success"])
			if tt.want == fiber.StatusInternalServerError {
				assert.NotContains(t, body["message"], "disk on fire")
			}
		})
	}
}

func TestRespondError_ListsFields(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return respondError(c, zap.NewNop(), apperrors.Missing("photo", "idProof", "certificate"))
	})

	_, body := do(t, app, httptest.NewRequest(fiber.MethodGet, "/", nil))
	assert.Equal(t, "MISSING_FIELDS", body["code"])
	assert.Len(t, body["fields"], 3)
}
