package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/campusride/transport_portal/database/inmem"
	"github.com/campusride/transport_portal/fees"
	"github.com/campusride/transport_portal/middleware"
	"github.com/campusride/transport_portal/models"
	"github.com/campusride/transport_portal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "handler-test-secret")
	os.Exit(m.Run())
}

type paymentAPI struct {
	app     *fiber.App
	store   *inmem.PaymentStore
	route   *models.Route
	student *models.Student
}

func newPaymentAPI(t *testing.T, quotaFee, outstanding float64) *paymentAPI {
	t.Helper()
	store := inmem.NewPaymentStore()
	route := store.AddRoute(models.Route{RouteNumber: "R-7", RouteName: "Lake Road"})
	stop := "Lake Gate"
	st := models.Student{
		StudentName:       "Ravi Das",
		Email:             "ravi@example.edu",
		AllocatedRouteID:  &route.ID,
		BoardingStop:      &stop,
		OutstandingAmount: outstanding,
	}
	if quotaFee > 0 {
		st.Quota = &models.QuotaType{Name: "Government", Code: "GOVT", AnnualFeeAmount: quotaFee}
	}
	student := store.AddStudent(st)

	svc := services.NewSemesterPaymentService(store, 5)
	svc.Now = func() time.Time { return time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC) }
	h := &SemesterPaymentHandler{Payments: svc}

	app := fiber.New()
	grp := app.Group("/api/semester-payments-v2", middleware.Protected())
	grp.Get("", h.Get)
	grp.Post("", h.Create)
	return &paymentAPI{app: app, store: store, route: route, student: student}
}

func token(t *testing.T, id uuid.UUID, role string) string {
	t.Helper()
	tok, err := middleware.IssueToken(middleware.Principal{ID: id, Role: role}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (a *paymentAPI) do(t *testing.T, method, path, tok string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)

	var out map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestGetAvailableOptions(t *testing.T) {
	api := newPaymentAPI(t, 20000, 0)
	tok := token(t, api.student.ID, models.RolePassenger)

	code, body := api.do(t, http.MethodGet, "/api/semester-payments-v2?type=available", tok, nil)
	require.Equal(t, http.StatusOK, code)
	options := body["options"].([]interface{})
	require.Len(t, options, 1)
	first := options[0].(map[string]interface{})
	assert.Equal(t, "full_year", first["payment_type"])
	assert.Equal(t, true, first["is_paid"])
}

func TestGetRejectsOtherStudents(t *testing.T) {
	api := newPaymentAPI(t, 20000, 0)
	tok := token(t, uuid.New(), models.RolePassenger)

	code, _ := api.do(t, http.MethodGet, "/api/semester-payments-v2?studentId="+api.student.ID.String(), tok, nil)
	assert.Equal(t, http.StatusForbidden, code)

	staff := token(t, uuid.New(), models.RoleTransport)
	code, _ = api.do(t, http.MethodGet, "/api/semester-payments-v2?type=history&studentId="+api.student.ID.String(), staff, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(t, http.MethodGet, "/api/semester-payments-v2?type=weekly&studentId="+api.student.ID.String(), staff, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetNotAllocatedIncludesDiagnostics(t *testing.T) {
	api := newPaymentAPI(t, 20000, 0)
	api.store.Students[api.student.ID].AllocatedRouteID = nil
	tok := token(t, api.student.ID, models.RolePassenger)

	code, body := api.do(t, http.MethodGet, "/api/semester-payments-v2", tok, nil)
	require.Equal(t, http.StatusNotFound, code)
	details := body["details"].(map[string]interface{})
	assert.Equal(t, false, details["has_route"])
	assert.Equal(t, true, details["has_boarding_stop"])
}

func TestCreateTermPayment(t *testing.T) {
	api := newPaymentAPI(t, 20000, 20000)
	tok := token(t, api.student.ID, models.RolePassenger)

	code, body := api.do(t, http.MethodPost, "/api/semester-payments-v2", tok, map[string]interface{}{
		"studentId":   api.student.ID.String(),
		"paymentType": "term",
		"termNumber":  1,
		"routeId":     api.route.ID.String(),
		"stopName":    "Lake Gate",
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, 6667.0, body["amount"])
	assert.Equal(t, "2025-06-01", body["valid_from"])
	assert.Equal(t, "2025-10-07", body["valid_until"])
	assert.Equal(t, "blue", body["receipt_color"])
}

func TestCreatePaymentStatusCodes(t *testing.T) {
	api := newPaymentAPI(t, 0, 0)
	api.store.AddSemesterFee(models.SemesterFee{AllocatedRouteID: api.route.ID, StopName: "Lake Gate", AcademicYear: "2025-26", Semester: "1", SemesterFee: 6000, IsActive: true})
	api.store.AddSemesterFee(models.SemesterFee{AllocatedRouteID: api.route.ID, StopName: "Lake Gate", AcademicYear: "2025-26", Semester: "2", SemesterFee: 6000, IsActive: true})
	staff := token(t, uuid.New(), models.RoleFinance)
	passenger := token(t, api.student.ID, models.RolePassenger)

	base := func(paymentType string) map[string]interface{} {
		return map[string]interface{}{
			"studentId":   api.student.ID.String(),
			"paymentType": paymentType,
			"routeId":     api.route.ID.String(),
			"stopName":    "Lake Gate",
		}
	}

	missing := base("term")
	delete(missing, "studentId")
	code, _ := api.do(t, http.MethodPost, "/api/semester-payments-v2", staff, missing)
	assert.Equal(t, http.StatusBadRequest, code)

	noTerm := base("term")
	code, _ = api.do(t, http.MethodPost, "/api/semester-payments-v2", staff, noTerm)
	assert.Equal(t, http.StatusBadRequest, code)

	selfConfirm := base("term")
	selfConfirm["termNumber"] = "1"
	selfConfirm["paymentStatus"] = "confirmed"
	code, _ = api.do(t, http.MethodPost, "/api/semester-payments-v2", passenger, selfConfirm)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = api.do(t, http.MethodPost, "/api/semester-payments-v2", staff, selfConfirm)
	require.Equal(t, http.StatusCreated, code)

	code, body := api.do(t, http.MethodPost, "/api/semester-payments-v2", staff, base(fees.TypeFullYear))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Cannot pay full year after individual term payments", body["error"])

	term3 := base("term")
	term3["termNumber"] = "3"
	code, body = api.do(t, http.MethodPost, "/api/semester-payments-v2", staff, term3)
	assert.Equal(t, http.StatusBadRequest, code, body)

	unknown := base("term")
	unknown["termNumber"] = "2"
	unknown["studentId"] = uuid.NewString()
	code, _ = api.do(t, http.MethodPost, "/api/semester-payments-v2", staff, unknown)
	assert.Equal(t, http.StatusNotFound, code)
}
