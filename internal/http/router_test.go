package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/auth"
	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/repository"
	"github.com/undesputed/senior-care-central-sub001/internal/service"
	"github.com/undesputed/senior-care-central-sub001/internal/store"
)

const testSecret = "router-test-secret"

type testAPI struct {
	t       *testing.T
	store   *repository.MemoryStore
	docs    *service.MemoryDocumentStore
	router  *Router
	agency  *domain.Agency
	family  *domain.Family
	patient *domain.Patient
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	s := repository.NewMemoryStore()
	docs := service.NewMemoryDocumentStore()
	kv := store.NewMemoryKV()

	s.PutProfile(domain.Profile{ID: "fam-account", Email: "fam@example.com", Role: domain.RoleFamily})
	s.PutProfile(domain.Profile{ID: "prov-account", Email: "prov@example.com", Role: domain.RoleProvider})
	family, err := s.UpsertFamily(ctx, &domain.Family{UserID: "fam-account", FullName: "Jane Doe"})
	require.NoError(t, err)
	patient, err := s.CreatePatient(ctx, &domain.Patient{FamilyID: family.FamilyID, FirstName: "Ann", LastName: "Doe"})
	require.NoError(t, err)
	agency, err := s.UpsertBusinessInfo(ctx, "prov-account", domain.BusinessInfo{BusinessName: "Sunrise Care", City: "Austin", State: "TX"})
	require.NoError(t, err)

	revoker := auth.NewSessionRevoker(kv, time.Hour)
	authn := auth.NewAuthenticator(auth.NewVerifier(testSecret, ""), revoker, s, logger)

	notifications := service.NewNotificationService(s, s, s, nil, logger)
	directory := service.NewAgencyDirectoryService(s, kv, time.Minute, logger)

	r := NewRouter(authn, NewMetrics(), logger)
	r.RegisterOnboardingRoutes(NewOnboardingHandler(
		service.NewProviderOnboardingService(s, s, docs, "provider-documents", revoker, logger),
		service.NewPatientOnboardingService(s, s, docs, "onboarding-uploads", logger),
		logger,
	))
	r.RegisterContractRoutes(NewContractsHandler(service.NewContractService(s, s, s, notifications, logger), logger))
	r.RegisterMatchingRoutes(NewMatchingHandler(service.NewMatchingService(s, s, s, logger), logger))
	r.RegisterChatRoutes(NewChatHandler(service.NewChatService(nil, s, s, s, s, logger), logger))
	r.RegisterProviderRoutes(NewProviderHandler(service.NewProviderService(s, docs, "provider-documents", directory, logger), logger))
	r.RegisterAgencyRoutes(NewAgenciesHandler(directory, logger))
	r.RegisterInvoiceRoutes(NewInvoicesHandler(service.NewInvoiceService(s, s, s, s, notifications, logger), logger))
	r.RegisterNotificationRoutes(NewNotificationsHandler(notifications, logger))
	r.RegisterFamilyRoutes(NewFamilyHandler(service.NewFamilyService(s, logger), logger))

	return &testAPI{t: t, store: s, docs: docs, router: r, agency: agency, family: family, patient: patient}
}

func (a *testAPI) token(accountID string, role domain.Role) string {
	a.t.Helper()
	tok, err := auth.IssueToken(testSecret, accountID, "", role, time.Hour)
	require.NoError(a.t, err)
	return tok
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) famToken() string  { return a.token("fam-account", domain.RoleFamily) }
func (a *testAPI) provToken() string { return a.token("prov-account", domain.RoleProvider) }

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestRouter_HealthReportsDependencies(t *testing.T) {
	api := newTestAPI(t)
	connected := true
	api.router.AddHealthCheck("mqtt", func() bool { return connected })

	body := decode(t, api.do(http.MethodGet, "/health", "", nil))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, map[string]any{"mqtt": "up"}, body["checks"])

	connected = false
	rec := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"mqtt": "down"}, body["checks"])
}

func TestRouter_RequiresBearerToken(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/contracts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode(t, rec)["error"])

	rec = api.do(http.MethodGet, "/contracts", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RoleMismatchIsForbidden(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/provider/profile", api.famToken(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/onboarding/check", api.famToken(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodGet, "/family/profile", api.provToken(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_MalformedBody(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/contracts/accept", api.famToken(), "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON body", decode(t, rec)["error"])
}

func TestRouter_OnboardingCheckRevokesMissingAccount(t *testing.T) {
	api := newTestAPI(t)
	ghost := api.token("ghost-account", "")

	rec := api.do(http.MethodPost, "/onboarding/check", ghost, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodGet, "/notifications", ghost, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode(t, rec)["error"])
}

func TestRouter_OnboardingCheckNextStep(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/onboarding/check", api.provToken(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["isComplete"])
	assert.Equal(t, service.OnboardingStepPath(1), body["nextStep"])
}

func TestRouter_PublishGateReportsField(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/provider/publish", api.provToken(), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Business permit must be verified", body["error"])
	assert.Equal(t, "permit_verified", body["field"])

	require.NoError(t, api.store.SetPermitVerified(api.agency.AgencyID, true))
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/provider/service-areas", api.provToken(), map[string]any{"serviceAreas": []string{"78701"}}).Code)
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/provider/services", api.provToken(), map[string]any{
		"services": []map[string]string{{"serviceId": "svc-1", "serviceName": "Companionship"}},
	}).Code)

	rec = api.do(http.MethodPost, "/provider/publish", api.provToken(), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "rates", decode(t, rec)["field"])

	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/provider/rates", api.provToken(), map[string]any{
		"rates": []map[string]any{{"serviceId": "svc-1", "rateType": "hourly", "amountMinor": 3000}},
	}).Code)
	rec = api.do(http.MethodPost, "/provider/publish", api.provToken(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	agency := decode(t, rec)["agency"].(map[string]any)
	assert.Equal(t, "published", agency["status"])

	rec = api.do(http.MethodGet, "/agencies", api.famToken(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)["agencies"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "Sunrise Care", list[0].(map[string]any)["businessName"])
}

// sentContract creates a contract in the sent state and returns its id.
func (a *testAPI) sentContract() string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/contracts/create", a.provToken(), map[string]any{
		"agencyId":  a.agency.AgencyID,
		"patientId": a.patient.PatientID,
		"rate":      3000,
		"startDate": "2026-11-01",
		"status":    "sent",
	})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(a.t, rec)
	assert.Equal(a.t, true, body["success"])
	return body["contract"].(map[string]any)["id"].(string)
}

func TestRouter_ContractAcceptFlow(t *testing.T) {
	api := newTestAPI(t)
	id := api.sentContract()

	rec := api.do(http.MethodPost, "/contracts/accept", api.famToken(), map[string]any{"id": id, "agencyId": "ignored"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["ok"])

	rec = api.do(http.MethodGet, "/contracts?status=accepted", api.famToken(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)["contracts"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].(map[string]any)["id"])

	rec = api.do(http.MethodGet, "/notifications?unread=true", api.provToken(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["notifications"])
}

func TestRouter_ContractActionWithMalformedID(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/contracts/accept", api.famToken(), map[string]any{"id": "abc"})
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestRouter_ContractCreateRejectsBadDate(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/contracts/create", api.provToken(), map[string]any{
		"patientId": api.patient.PatientID,
		"startDate": "next tuesday",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "startDate", decode(t, rec)["field"])
}

func TestRouter_InvoiceExport(t *testing.T) {
	api := newTestAPI(t)
	id := api.sentContract()
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/contracts/accept", api.famToken(), map[string]any{"id": id}).Code)

	rec := api.do(http.MethodPost, "/invoices/create", api.provToken(), map[string]any{
		"contractId":     id,
		"agencyId":       api.agency.AgencyID,
		"patientId":      api.patient.PatientID,
		"familyId":       api.family.FamilyID,
		"amountSubtotal": 10000,
		"amountTax":      800,
		"amountTotal":    10800,
		"dueDate":        "2026-12-01",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	invoiceID := decode(t, rec)["invoice"].(map[string]any)["id"].(string)

	rec = api.do(http.MethodGet, "/invoices/export", api.provToken(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment;"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(invoiceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, InvoiceExportHeader[0], rows[0][0])
	assert.Equal(t, invoiceID, rows[1][0])
	assert.Equal(t, "108", rows[1][8])
	assert.Equal(t, "2026-12-01", rows[1][9])
}

func TestRouter_PatientOnboardingWizard(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/onboarding/patient/start", api.famToken(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sessionID := decode(t, rec)["session"].(map[string]any)["id"].(string)

	rec = api.do(http.MethodPost, "/onboarding/patient/save-step", api.famToken(), map[string]any{
		"sessionId": sessionID,
		"step":      9,
		"data":      map[string]any{},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "step", decode(t, rec)["field"])

	rec = api.do(http.MethodPost, "/onboarding/patient/save-step", api.famToken(), map[string]any{
		"sessionId": sessionID,
		"step":      1,
		"data":      map[string]any{"first_name": "Ruth", "last_name": "Doe"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/onboarding/patient/finalize", api.famToken(), map[string]any{"sessionId": sessionID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/onboarding/patient/save-step", api.famToken(), map[string]any{
		"sessionId": sessionID,
		"step":      2,
		"data":      map[string]any{},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodGet, "/family/patients", api.famToken(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["patients"], 2)
}

func TestRouter_ChatWithoutCredentials(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/chat/family-token", api.famToken(), nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, service.ErrChatNotConfigured.Error(), decode(t, rec)["error"])
}

func TestRouter_MetricsCountsRoutes(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodGet, "/health", "", nil)

	rec := api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `carecentral_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
