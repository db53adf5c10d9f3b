package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MisterBo-ops/Gestionfil/internal/models"
	"github.com/MisterBo-ops/Gestionfil/internal/store"
)

type fakeStore struct {
	loginFn            func(ctx context.Context, username, password string) (store.LoginResult, error)
	getSessionFn       func(ctx context.Context, token string) (models.User, error)
	logoutFn           func(ctx context.Context, token string) error
	expireSessionsFn   func(ctx context.Context, maxAge time.Duration) (int, error)
	createConseillerFn func(ctx context.Context, input store.CreateConseillerInput) (int64, error)
	listConseillersFn  func(ctx context.Context) ([]models.User, error)
	toggleFn           func(ctx context.Context, actorID, conseillerID int64) (bool, error)
	updateConseillerFn func(ctx context.Context, actorID int64, input store.UpdateConseillerInput) error
	deleteConseillerFn func(ctx context.Context, actorID, conseillerID int64) error
	registerClientFn   func(ctx context.Context, input store.RegisterClientInput) (store.RegisterClientResult, error)
	listQueueFn        func(ctx context.Context) ([]models.Client, error)
	callClientFn       func(ctx context.Context, advisorID, clientID int64) (models.Client, error)
	completeClientFn   func(ctx context.Context, advisorID, clientID int64) (models.Client, error)
	currentClientFn    func(ctx context.Context, advisorID int64) (models.Client, bool, error)
	getTicketFn        func(ctx context.Context, clientID int64) (models.Client, error)
	startBreakFn       func(ctx context.Context, userID int64, reason string) (time.Time, error)
	endBreakFn         func(ctx context.Context, userID int64) (int, error)
	listBreaksFn       func(ctx context.Context, userID int64) ([]models.Break, error)
	dashboardAgentsFn  func(ctx context.Context) ([]store.AgentStatus, error)
	dashboardStatsFn   func(ctx context.Context) (store.DashboardStats, error)
	reportFn           func(ctx context.Context, from time.Time) (store.Report, error)
	chartStatsFn       func(ctx context.Context, from time.Time) (store.ChartStats, error)
	advancedStatsFn    func(ctx context.Context, filter store.AdvancedFilter) (store.AdvancedStats, error)
	listActivityFn     func(ctx context.Context, limit int) ([]models.ActivityEntry, error)
}

func (f fakeStore) Login(ctx context.Context, username, password string) (store.LoginResult, error) {
	if f.loginFn == nil {
		return store.LoginResult{}, nil
	}
	return f.loginFn(ctx, username, password)
}

func (f fakeStore) GetSession(ctx context.Context, token string) (models.User, error) {
	if f.getSessionFn == nil {
		return models.User{}, store.ErrSessionNotFound
	}
	return f.getSessionFn(ctx, token)
}

func (f fakeStore) Logout(ctx context.Context, token string) error {
	if f.logoutFn == nil {
		return nil
	}
	return f.logoutFn(ctx, token)
}

func (f fakeStore) ExpireSessions(ctx context.Context, maxAge time.Duration) (int, error) {
	if f.expireSessionsFn == nil {
		return 0, nil
	}
	return f.expireSessionsFn(ctx, maxAge)
}

func (f fakeStore) CreateConseiller(ctx context.Context, input store.CreateConseillerInput) (int64, error) {
	if f.createConseillerFn == nil {
		return 0, nil
	}
	return f.createConseillerFn(ctx, input)
}

func (f fakeStore) ListConseillers(ctx context.Context) ([]models.User, error) {
	if f.listConseillersFn == nil {
		return nil, nil
	}
	return f.listConseillersFn(ctx)
}

func (f fakeStore) ToggleConseiller(ctx context.Context, actorID, conseillerID int64) (bool, error) {
	if f.toggleFn == nil {
		return false, nil
	}
	return f.toggleFn(ctx, actorID, conseillerID)
}

func (f fakeStore) UpdateConseiller(ctx context.Context, actorID int64, input store.UpdateConseillerInput) error {
	if f.updateConseillerFn == nil {
		return nil
	}
	return f.updateConseillerFn(ctx, actorID, input)
}

func (f fakeStore) DeleteConseiller(ctx context.Context, actorID, conseillerID int64) error {
	if f.deleteConseillerFn == nil {
		return nil
	}
	return f.deleteConseillerFn(ctx, actorID, conseillerID)
}

func (f fakeStore) RegisterClient(ctx context.Context, input store.RegisterClientInput) (store.RegisterClientResult, error) {
	if f.registerClientFn == nil {
		return store.RegisterClientResult{}, nil
	}
	return f.registerClientFn(ctx, input)
}

func (f fakeStore) ListQueue(ctx context.Context) ([]models.Client, error) {
	if f.listQueueFn == nil {
		return nil, nil
	}
	return f.listQueueFn(ctx)
}

func (f fakeStore) CallClient(ctx context.Context, advisorID, clientID int64) (models.Client, error) {
	if f.callClientFn == nil {
		return models.Client{}, nil
	}
	return f.callClientFn(ctx, advisorID, clientID)
}

func (f fakeStore) CompleteClient(ctx context.Context, advisorID, clientID int64) (models.Client, error) {
	if f.completeClientFn == nil {
		return models.Client{}, nil
	}
	return f.completeClientFn(ctx, advisorID, clientID)
}

func (f fakeStore) CurrentClient(ctx context.Context, advisorID int64) (models.Client, bool, error) {
	if f.currentClientFn == nil {
		return models.Client{}, false, nil
	}
	return f.currentClientFn(ctx, advisorID)
}

func (f fakeStore) GetTicket(ctx context.Context, clientID int64) (models.Client, error) {
	if f.getTicketFn == nil {
		return models.Client{}, store.ErrClientNotFound
	}
	return f.getTicketFn(ctx, clientID)
}

func (f fakeStore) StartBreak(ctx context.Context, userID int64, reason string) (time.Time, error) {
	if f.startBreakFn == nil {
		return time.Time{}, nil
	}
	return f.startBreakFn(ctx, userID, reason)
}

func (f fakeStore) EndBreak(ctx context.Context, userID int64) (int, error) {
	if f.endBreakFn == nil {
		return 0, nil
	}
	return f.endBreakFn(ctx, userID)
}

func (f fakeStore) ListBreaks(ctx context.Context, userID int64) ([]models.Break, error) {
	if f.listBreaksFn == nil {
		return nil, nil
	}
	return f.listBreaksFn(ctx, userID)
}

func (f fakeStore) DashboardAgents(ctx context.Context) ([]store.AgentStatus, error) {
	if f.dashboardAgentsFn == nil {
		return nil, nil
	}
	return f.dashboardAgentsFn(ctx)
}

func (f fakeStore) DashboardStats(ctx context.Context) (store.DashboardStats, error) {
	if f.dashboardStatsFn == nil {
		return store.DashboardStats{}, nil
	}
	return f.dashboardStatsFn(ctx)
}

func (f fakeStore) Report(ctx context.Context, from time.Time) (store.Report, error) {
	if f.reportFn == nil {
		return store.Report{}, nil
	}
	return f.reportFn(ctx, from)
}

func (f fakeStore) ChartStats(ctx context.Context, from time.Time) (store.ChartStats, error) {
	if f.chartStatsFn == nil {
		return store.ChartStats{}, nil
	}
	return f.chartStatsFn(ctx, from)
}

func (f fakeStore) AdvancedStats(ctx context.Context, filter store.AdvancedFilter) (store.AdvancedStats, error) {
	if f.advancedStatsFn == nil {
		return store.AdvancedStats{}, nil
	}
	return f.advancedStatsFn(ctx, filter)
}

func (f fakeStore) ListActivity(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	if f.listActivityFn == nil {
		return nil, nil
	}
	return f.listActivityFn(ctx, limit)
}

func serve(t *testing.T, s store.Store, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	handler := AuthMiddleware(s, NewHandler(s).Routes())
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, r)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func sessionStore(user models.User, base fakeStore) fakeStore {
	base.getSessionFn = func(ctx context.Context, token string) (models.User, error) {
		if token != "valid-token" {
			return models.User{}, store.ErrSessionNotFound
		}
		return user, nil
	}
	return base
}

func conseiller() models.User {
	return models.User{ID: 7, Username: "akossi", FullName: "Akossi N'Guessan", Role: models.RoleConseiller, IsActive: true, IsAvailable: true}
}

func chef() models.User {
	return models.User{ID: 1, Username: "chef", FullName: "Chef d'agence", Role: models.RoleChef, IsActive: true}
}

func TestLoginSuccess(t *testing.T) {
	s := fakeStore{
		loginFn: func(ctx context.Context, username, password string) (store.LoginResult, error) {
			if username != "akossi" || password != "secret" {
				return store.LoginResult{}, store.ErrInvalidCredentials
			}
			return store.LoginResult{Token: "new-token", User: conseiller()}, nil
		},
	}

	body := bytes.NewBufferString(`{"username":"akossi","password":"secret"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	payload := decodeBody(t, recorder)
	if payload["token"] != "new-token" {
		t.Fatalf("expected token in response, got %v", payload)
	}
	user, ok := payload["user"].(map[string]interface{})
	if !ok || user["role"] != models.RoleConseiller {
		t.Fatalf("expected user payload, got %v", payload)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	s := fakeStore{
		loginFn: func(ctx context.Context, username, password string) (store.LoginResult, error) {
			return store.LoginResult{}, store.ErrInvalidCredentials
		},
	}

	body := bytes.NewBufferString(`{"username":"akossi","password":"wrong"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	if payload["error"] != "Identifiants invalides" {
		t.Fatalf("unexpected error message: %v", payload)
	}
}

func TestLoginMissingFields(t *testing.T) {
	body := bytes.NewBufferString(`{"username":"","password":""}`)
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	recorder := serve(t, fakeStore{}, r)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestMissingTokenRejected(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/clients/queue", nil)
	recorder := serve(t, fakeStore{}, r)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	s := sessionStore(conseiller(), fakeStore{})
	r := httptest.NewRequest(http.MethodGet, "/api/clients/queue", nil)
	r.Header.Set("Authorization", "Bearer expired-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	if payload["error"] != "Session invalide" {
		t.Fatalf("unexpected error message: %v", payload)
	}
}

func TestCallClientRequiresConseiller(t *testing.T) {
	s := sessionStore(chef(), fakeStore{})
	r := httptest.NewRequest(http.MethodPost, "/api/clients/12/call", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
}

func TestCallClientSuccess(t *testing.T) {
	waited := 9
	s := sessionStore(conseiller(), fakeStore{
		callClientFn: func(ctx context.Context, advisorID, clientID int64) (models.Client, error) {
			if advisorID != 7 || clientID != 12 {
				t.Fatalf("unexpected ids: advisor=%d client=%d", advisorID, clientID)
			}
			return models.Client{ID: 12, Status: models.StatusInService, WaitingTimeMinutes: &waited}, nil
		},
	})
	r := httptest.NewRequest(http.MethodPost, "/api/clients/12/call", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	payload := decodeBody(t, recorder)
	if payload["waiting_time_minutes"] != float64(9) {
		t.Fatalf("expected waiting_time_minutes 9, got %v", payload)
	}
}

func TestCallClientAlreadyTaken(t *testing.T) {
	s := sessionStore(conseiller(), fakeStore{
		callClientFn: func(ctx context.Context, advisorID, clientID int64) (models.Client, error) {
			return models.Client{}, store.ErrClientNotFound
		},
	})
	r := httptest.NewRequest(http.MethodPost, "/api/clients/12/call", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	if payload["error"] != "Client non trouvé ou déjà pris en charge" {
		t.Fatalf("unexpected error message: %v", payload)
	}
}

func TestCallClientWhileBusy(t *testing.T) {
	s := sessionStore(conseiller(), fakeStore{
		callClientFn: func(ctx context.Context, advisorID, clientID int64) (models.Client, error) {
			return models.Client{}, store.ErrAdvisorUnavailable
		},
	})
	r := httptest.NewRequest(http.MethodPost, "/api/clients/12/call", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
}

func TestCompleteClientNotOwned(t *testing.T) {
	s := sessionStore(conseiller(), fakeStore{
		completeClientFn: func(ctx context.Context, advisorID, clientID int64) (models.Client, error) {
			return models.Client{}, store.ErrClientNotFound
		},
	})
	r := httptest.NewRequest(http.MethodPost, "/api/clients/12/complete", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func TestCompleteClientSuccess(t *testing.T) {
	service := 14
	total := 23
	s := sessionStore(conseiller(), fakeStore{
		completeClientFn: func(ctx context.Context, advisorID, clientID int64) (models.Client, error) {
			return models.Client{ID: 12, Status: models.StatusCompleted, ServiceTimeMinutes: &service, TotalTimeMinutes: &total}, nil
		},
	})
	r := httptest.NewRequest(http.MethodPost, "/api/clients/12/complete", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	if payload["service_time_minutes"] != float64(14) || payload["total_time_minutes"] != float64(23) {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestRegisterClientMissingFields(t *testing.T) {
	s := sessionStore(conseiller(), fakeStore{})
	body := bytes.NewBufferString(`{"nom":"Kouadio","prenom":"","numero_mtn":"0707070707","raison_visite":"SIM","type_client":"NON_HVC"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/clients", body)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestRegisterClientInvalidType(t *testing.T) {
	s := sessionStore(conseiller(), fakeStore{})
	body := bytes.NewBufferString(`{"nom":"Kouadio","prenom":"Aya","numero_mtn":"0707070707","raison_visite":"SIM","type_client":"PLATINE"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/clients", body)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestRegisterClientSuccess(t *testing.T) {
	s := sessionStore(conseiller(), fakeStore{
		registerClientFn: func(ctx context.Context, input store.RegisterClientInput) (store.RegisterClientResult, error) {
			if input.RegisteredBy != 7 {
				t.Fatalf("unexpected registered_by: %d", input.RegisteredBy)
			}
			return store.RegisterClientResult{ClientID: 33, Priority: 1, TicketNumber: "20260828-004", QRCode: `{"ticket":"20260828-004"}`}, nil
		},
	})
	body := bytes.NewBufferString(`{"nom":"Kouadio","prenom":"Aya","numero_mtn":"0707070707","raison_visite":"SIM","type_client":"HVC_OR"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/clients", body)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	payload := decodeBody(t, recorder)
	if payload["ticket_number"] != "20260828-004" || payload["priority"] != float64(1) {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestQueueListing(t *testing.T) {
	s := sessionStore(conseiller(), fakeStore{
		listQueueFn: func(ctx context.Context) ([]models.Client, error) {
			return []models.Client{
				{ID: 1, Priority: 1, TicketNumber: "20260828-002"},
				{ID: 2, Priority: 3, TicketNumber: "20260828-001"},
			}, nil
		},
	})
	r := httptest.NewRequest(http.MethodGet, "/api/clients/queue", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	queue, ok := payload["queue"].([]interface{})
	if !ok || len(queue) != 2 {
		t.Fatalf("expected 2 queue entries, got %v", payload)
	}
}

func TestCurrentClientEmpty(t *testing.T) {
	s := sessionStore(conseiller(), fakeStore{
		currentClientFn: func(ctx context.Context, advisorID int64) (models.Client, bool, error) {
			return models.Client{}, false, nil
		},
	})
	r := httptest.NewRequest(http.MethodGet, "/api/clients/current", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	if value, present := payload["client"]; !present || value != nil {
		t.Fatalf("expected null client, got %v", payload)
	}
}

func TestCreateConseillerForbiddenForConseiller(t *testing.T) {
	s := sessionStore(conseiller(), fakeStore{})
	body := bytes.NewBufferString(`{"username":"new","password":"pass","full_name":"New Conseiller"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/users/conseiller", body)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
}

func TestCreateConseillerDuplicate(t *testing.T) {
	s := sessionStore(chef(), fakeStore{
		createConseillerFn: func(ctx context.Context, input store.CreateConseillerInput) (int64, error) {
			return 0, store.ErrDuplicateUsername
		},
	})
	body := bytes.NewBufferString(`{"username":"akossi","password":"pass","full_name":"Akossi"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/users/conseiller", body)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	if payload["error"] != "Ce nom d'utilisateur existe déjà" {
		t.Fatalf("unexpected error message: %v", payload)
	}
}

func TestToggleConseiller(t *testing.T) {
	s := sessionStore(chef(), fakeStore{
		toggleFn: func(ctx context.Context, actorID, conseillerID int64) (bool, error) {
			if conseillerID != 9 {
				t.Fatalf("unexpected conseiller id: %d", conseillerID)
			}
			return false, nil
		},
	})
	r := httptest.NewRequest(http.MethodPatch, "/api/users/conseiller/9/toggle", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	if payload["is_active"] != false {
		t.Fatalf("expected is_active false, got %v", payload)
	}
}

func TestDeleteConseillerServing(t *testing.T) {
	s := sessionStore(chef(), fakeStore{
		deleteConseillerFn: func(ctx context.Context, actorID, conseillerID int64) error {
			return store.ErrAdvisorServing
		},
	})
	r := httptest.NewRequest(http.MethodDelete, "/api/users/conseiller/9", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestStartBreakWhileServing(t *testing.T) {
	s := sessionStore(conseiller(), fakeStore{
		startBreakFn: func(ctx context.Context, userID int64, reason string) (time.Time, error) {
			return time.Time{}, store.ErrClientInService
		},
	})
	r := httptest.NewRequest(http.MethodPost, "/api/breaks/start", bytes.NewBufferString(`{"reason":"déjeuner"}`))
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	if payload["error"] != "Impossible de prendre une pause avec un client en service" {
		t.Fatalf("unexpected error message: %v", payload)
	}
}

func TestEndBreakWithoutOpenBreak(t *testing.T) {
	s := sessionStore(conseiller(), fakeStore{
		endBreakFn: func(ctx context.Context, userID int64) (int, error) {
			return 0, store.ErrNoOpenBreak
		},
	})
	r := httptest.NewRequest(http.MethodPost, "/api/breaks/end", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestBreakHistoryOtherUserForbidden(t *testing.T) {
	s := sessionStore(conseiller(), fakeStore{})
	r := httptest.NewRequest(http.MethodGet, "/api/breaks/history?user_id=99", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
}

func TestBreakHistoryAsChef(t *testing.T) {
	s := sessionStore(chef(), fakeStore{
		listBreaksFn: func(ctx context.Context, userID int64) ([]models.Break, error) {
			if userID != 99 {
				t.Fatalf("unexpected user id: %d", userID)
			}
			return []models.Break{{ID: 1, UserID: 99, BreakStart: time.Now()}}, nil
		},
	})
	r := httptest.NewRequest(http.MethodGet, "/api/breaks/history?user_id=99", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}

func TestReportsForbiddenForConseiller(t *testing.T) {
	s := sessionStore(conseiller(), fakeStore{})
	r := httptest.NewRequest(http.MethodGet, "/api/reports?period=week", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
}

func TestReportsPeriodPassedToStore(t *testing.T) {
	var gotFrom time.Time
	s := sessionStore(chef(), fakeStore{
		reportFn: func(ctx context.Context, from time.Time) (store.Report, error) {
			gotFrom = from
			return store.Report{TotalClients: 5}, nil
		},
	})
	r := httptest.NewRequest(http.MethodGet, "/api/reports?period=week", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if time.Since(gotFrom) < 6*24*time.Hour || time.Since(gotFrom) > 8*24*time.Hour {
		t.Fatalf("expected from about a week ago, got %v", gotFrom)
	}
}

func TestAdvancedStatsInvalidDate(t *testing.T) {
	s := sessionStore(chef(), fakeStore{})
	r := httptest.NewRequest(http.MethodGet, "/api/statistics/advanced?start_date=28-08-2026&end_date=2026-08-28", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestAdvancedStatsFilters(t *testing.T) {
	var gotFilter store.AdvancedFilter
	s := sessionStore(chef(), fakeStore{
		advancedStatsFn: func(ctx context.Context, filter store.AdvancedFilter) (store.AdvancedStats, error) {
			gotFilter = filter
			return store.AdvancedStats{}, nil
		},
	})
	r := httptest.NewRequest(http.MethodGet, "/api/statistics/advanced?start_date=2026-08-01&end_date=2026-08-28&conseillers=3,5&client_types=HVC_OR,NON_HVC", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if len(gotFilter.Conseillers) != 2 || gotFilter.Conseillers[0] != 3 || gotFilter.Conseillers[1] != 5 {
		t.Fatalf("unexpected conseiller filter: %v", gotFilter.Conseillers)
	}
	if len(gotFilter.ClientTypes) != 2 {
		t.Fatalf("unexpected type filter: %v", gotFilter.ClientTypes)
	}
	if !gotFilter.To.After(gotFilter.From) {
		t.Fatalf("expected To after From, got %v / %v", gotFilter.From, gotFilter.To)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	called := false
	s := sessionStore(conseiller(), fakeStore{
		logoutFn: func(ctx context.Context, token string) error {
			called = true
			if token != "valid-token" {
				t.Fatalf("unexpected token: %s", token)
			}
			return nil
		},
	})
	r := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if !called {
		t.Fatalf("expected Logout to be called")
	}
}

func TestMeReturnsUser(t *testing.T) {
	s := sessionStore(conseiller(), fakeStore{})
	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	user, ok := payload["user"].(map[string]interface{})
	if !ok || user["username"] != "akossi" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestTicketLookupNotFound(t *testing.T) {
	s := sessionStore(conseiller(), fakeStore{
		getTicketFn: func(ctx context.Context, clientID int64) (models.Client, error) {
			return models.Client{}, store.ErrClientNotFound
		},
	})
	r := httptest.NewRequest(http.MethodGet, "/api/tickets/404", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func TestActivityRequiresManagerRole(t *testing.T) {
	s := sessionStore(conseiller(), fakeStore{})
	r := httptest.NewRequest(http.MethodGet, "/api/activity", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	recorder := serve(t, s, r)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
}

func TestRateLimiterRejectsAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{IPPerMinute: 60, IPBurst: 2})
	s := sessionStore(conseiller(), fakeStore{})
	handler := limiter.Middleware(AuthMiddleware(s, NewHandler(s).Routes()))

	var last int
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodGet, "/api/clients/queue", nil)
		r.RemoteAddr = "10.0.0.1:4000"
		r.Header.Set("Authorization", "Bearer valid-token")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, r)
		last = recorder.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", last)
	}
}
