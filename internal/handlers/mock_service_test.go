package handlers

import (
	"context"
	"net/http"
	"time"

	"thermostat_relay/internal/models"
	"thermostat_relay/internal/service"
	"thermostat_relay/internal/thermostat"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockControl struct {
	forceOffErr   error
	resumeErr     error
	lastReason    string
	forceOffCalls int
	resumeCalls   int
}

func (m *mockControl) ForceOff(ctx context.Context, reason string) error {
	m.forceOffCalls++
	m.lastReason = reason
	return m.forceOffErr
}
func (m *mockControl) Resume(ctx context.Context) error {
	m.resumeCalls++
	return m.resumeErr
}

type mockMonitoring struct {
	state    models.ThermostatState
	err      error
	status   thermostat.Status
	statusOK bool
}

func (m *mockMonitoring) GetState(ctx context.Context) (models.ThermostatState, error) {
	return m.state, m.err
}
func (m *mockMonitoring) Status() (thermostat.Status, bool) {
	return m.status, m.statusOK
}

type mockEventLog struct {
	resp     []models.HeaterEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.HeaterEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withAuth(req *http.Request) *http.Request {
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}

func sampleStatus() thermostat.Status {
	return thermostat.Status{
		OperatingState: thermostat.OperatingStatus{OperationMode: "daily_schedule", Off: "off"},
		HardwareState:  thermostat.HardwareStatus{TempF: "61.5", HeaterOn: "yes"},
		InternalState: thermostat.InternalStatus{
			HeaterName: "Back bedroom Heater",
			GoalTempF:  "68",
		},
	}
}
