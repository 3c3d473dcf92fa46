package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/campusride/transport_portal/database"
	"github.com/campusride/transport_portal/middleware"
	"github.com/campusride/transport_portal/models"
	"github.com/campusride/transport_portal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newRequestAPI() *paymentAPI {
	app := fiber.New()
	app.Post("/grievances", middleware.Protected(), middleware.PassengerRequired(), CreateGrievance)
	app.Put("/profile/me", middleware.Protected(), UpdateProfile)
	app.Get("/tracking/routes/:routeId/trail", middleware.Protected(), GetRouteTrail)
	app.Get("/uploads/signature", middleware.Protected(), GenerateUploadSignature)
	app.Get("/page", func(c *fiber.Ctx) error {
		page, limit, offset := pageParams(c)
		return c.JSON(fiber.Map{"page": page, "limit": limit, "offset": offset})
	})
	return &paymentAPI{app: app}
}

func TestCreateGrievanceValidation(t *testing.T) {
	api := newRequestAPI()
	tok := token(t, uuid.New(), models.RolePassenger)

	code, body := api.do(t, http.MethodPost, "/grievances", tok, map[string]interface{}{
		"category":    "weather",
		"description": "late",
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Missing or invalid fields", body["error"])

	fields := body["fields"].(map[string]interface{})
	assert.Contains(t, fields, "category")
	assert.Contains(t, fields, "subject")
	assert.Contains(t, fields, "description")
	assert.Equal(t, "subject is a required field", fields["subject"])
}

func TestCreateGrievanceRequiresPassenger(t *testing.T) {
	api := newRequestAPI()
	tok := token(t, uuid.New(), models.RoleDriver)

	code, _ := api.do(t, http.MethodPost, "/grievances", tok, map[string]interface{}{})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestUpdateProfileOnlyForPassengers(t *testing.T) {
	api := newRequestAPI()
	tok := token(t, uuid.New(), models.RoleDriver)

	code, body := api.do(t, http.MethodPut, "/profile/me", tok, map[string]interface{}{"mobile": "9876543210"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Only passengers can edit their profile here", body["error"])
}

func TestRouteTrailRejectsBadInput(t *testing.T) {
	api := newRequestAPI()
	tok := token(t, uuid.New(), models.RolePassenger)
	routeID := uuid.New().String()

	cases := []struct {
		name string
		path string
	}{
		{"bad route id", "/tracking/routes/nope/trail"},
		{"zero minutes", "/tracking/routes/" + routeID + "/trail?minutes=0"},
		{"too many minutes", "/tracking/routes/" + routeID + "/trail?minutes=500"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _ := api.do(t, http.MethodGet, tc.path, tok, nil)
			assert.Equal(t, http.StatusBadRequest, code)
		})
	}
}

func TestRouteTrailReportsDatabaseFailure(t *testing.T) {
	prev := database.DB
	t.Cleanup(func() { database.DB = prev })
	unreachable, err := gorm.Open(postgres.Open("host=127.0.0.1 port=1 user=transport dbname=transport sslmode=disable connect_timeout=1"), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	database.DB = unreachable

	api := newRequestAPI()
	tok := token(t, uuid.New(), models.RolePassenger)
	code, body := api.do(t, http.MethodGet, "/tracking/routes/"+uuid.NewString()+"/trail?minutes=15", tok, nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Failed to load route trail", body["error"])
}

func TestPassengerCallbackRequiresMatchingState(t *testing.T) {
	h := &AuthHandler{}
	app := fiber.New()
	app.Post("/callback", h.PassengerCallback)

	cases := []struct {
		name   string
		body   string
		cookie string
		want   string
	}{
		{"missing state", `{"code":"abc"}`, "s1", "Missing or invalid fields"},
		{"missing cookie", `{"code":"abc","state":"s1"}`, "", "OAuth state mismatch"},
		{"different state", `{"code":"abc","state":"s2"}`, "s1", "OAuth state mismatch"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: tc.cookie})
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.want, body["error"])
		})
	}
}

func TestUploadSignatureRejectsUnknownPurpose(t *testing.T) {
	api := newRequestAPI()
	tok := token(t, uuid.New(), models.RolePassenger)

	code, body := api.do(t, http.MethodGet, "/uploads/signature?purpose=avatar", tok, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "purpose")
}

func TestPageParams(t *testing.T) {
	api := newRequestAPI()

	cases := []struct {
		query               string
		page, limit, offset float64
	}{
		{"", 1, 20, 0},
		{"?page=3&limit=10", 3, 10, 20},
		{"?page=0&limit=500", 1, 20, 0},
		{"?page=-2&limit=-1", 1, 20, 0},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			code, body := api.do(t, http.MethodGet, "/page"+tc.query, "", nil)
			require.Equal(t, http.StatusOK, code)
			assert.Equal(t, tc.page, body["page"])
			assert.Equal(t, tc.limit, body["limit"])
			assert.Equal(t, tc.offset, body["offset"])
		})
	}
}

func TestPageMeta(t *testing.T) {
	meta := pageMeta(41, 2, 20)
	assert.Equal(t, int64(41), meta["total"])
	assert.Equal(t, 3, meta["total_pages"])
	assert.Equal(t, 2, meta["current_page"])
}

func TestPortalOf(t *testing.T) {
	assert.Equal(t, services.PortalStaff, portalOf(middleware.Principal{Role: models.RoleFinance}))
	assert.Equal(t, services.PortalDriver, portalOf(middleware.Principal{Role: models.RoleDriver}))
	assert.Equal(t, services.PortalPassenger, portalOf(middleware.Principal{Role: models.RolePassenger}))
}

func TestFlexString(t *testing.T) {
	var req struct {
		Term flexString `json:"term"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"term": 2}`), &req))
	assert.Equal(t, flexString("2"), req.Term)

	require.NoError(t, json.Unmarshal([]byte(`{"term": "3"}`), &req))
	assert.Equal(t, flexString("3"), req.Term)

	assert.Error(t, json.Unmarshal([]byte(`{"term": true}`), &req))
}

func TestToJSON(t *testing.T) {
	assert.Nil(t, toJSON(nil))
	assert.JSONEq(t, `{"browser":"firefox"}`, string(toJSON(map[string]interface{}{"browser": "firefox"})))
}
