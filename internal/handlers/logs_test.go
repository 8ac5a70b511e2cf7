package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"thermostat_relay/internal/models"
	"thermostat_relay/internal/service"
)

func TestLogsHandler(t *testing.T) {
	t0 := time.Date(2029, 9, 14, 17, 0, 0, 0, time.UTC)
	events := []models.HeaterEvent{
		{EventID: "e1", OccurredAt: t0, Type: models.EventHeaterOn, Description: "Heater turned on"},
		{EventID: "e2", OccurredAt: t0.Add(time.Minute), Type: models.EventHeaterOff, Description: "Heater turned off"},
	}

	tests := []struct {
		name     string
		query    string
		listErr  error
		wantCode int
		wantMsg  string
		wantFrom time.Time
		wantTo   time.Time
		wantType string
	}{
		{name: "bad from", query: "from=notatime", wantCode: http.StatusBadRequest, wantMsg: errFromInvalid},
		{name: "bad to", query: "to=yesterday", wantCode: http.StatusBadRequest, wantMsg: errToInvalid},
		{name: "inverted range", query: "from=2029-09-15&to=2029-09-14T00:00:00Z", wantCode: http.StatusBadRequest, wantMsg: errRangeInvalid},
		{name: "unknown type", query: "type=boiler_fire", wantCode: http.StatusBadRequest, wantMsg: errTypeInvalid},
		{
			name:     "rfc3339 range and lowercase type",
			query:    "from=2029-09-14T17:00:00Z&to=2029-09-14T17:02:00Z&type=heater_off",
			wantCode: http.StatusOK,
			wantFrom: t0,
			wantTo:   t0.Add(2 * time.Minute),
			wantType: models.EventHeaterOff,
		},
		{
			name:     "date-only to covers the day",
			query:    "from=2029-09-14&to=2029-09-14",
			wantCode: http.StatusOK,
			wantFrom: time.Date(2029, 9, 14, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2029, 9, 15, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
		},
		{name: "stops", query: "type=stops", wantCode: http.StatusOK, wantType: service.EventStops},
		{name: "repository failure", listErr: errors.New("db down"), wantCode: http.StatusInternalServerError, wantMsg: errLogsFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := &mockEventLog{resp: events, err: tt.listErr}
			r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 99}, EventLog: logs})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, withAuth(httptest.NewRequest(http.MethodGet, "/api/v1/logs/?"+tt.query, nil)))
			if w.Code != tt.wantCode {
				t.Fatalf("code=%d, body=%s", w.Code, w.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				var out struct {
					Error string `json:"error"`
				}
				_ = json.Unmarshal(w.Body.Bytes(), &out)
				if out.Error != tt.wantMsg {
					t.Fatalf("error = %q, want %q", out.Error, tt.wantMsg)
				}
				return
			}

			var out struct {
				Count  int                  `json:"count"`
				Events []models.HeaterEvent `json:"events"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if out.Count != 2 || len(out.Events) != 2 {
				t.Fatalf("unexpected response: %+v", out)
			}
			if !logs.lastFrom.Equal(tt.wantFrom) || !logs.lastTo.Equal(tt.wantTo) || logs.lastType != tt.wantType {
				t.Fatalf("filter = %v..%v %q", logs.lastFrom, logs.lastTo, logs.lastType)
			}
		})
	}
}
