package controllers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Churchly/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventRows(events ...models.Event) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"event_id", "title", "description", "location", "datetime_start", "datetime_end",
		"reminder_sent", "datetime_create", "datetime_update", "created_by", "updated_by",
	})
	for _, e := range events {
		var end interface{}
		if e.Datetime_End != nil {
			end = *e.Datetime_End
		}
		rows.AddRow(e.Event_ID, e.Title, e.Description, e.Location, e.Datetime_Start, end,
			e.Reminder_Sent, e.Datetime_Create, e.Datetime_Update, e.Created_By, e.Updated_By)
	}
	return rows
}

func TestGetEvents(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		expectedQuery string
	}{
		{
			name:          "all events by start",
			expectedQuery: `SELECT (.+) FROM "event" ORDER BY "datetime_start" ASC`,
		},
		{
			name:          "upcoming only",
			query:         "?upcoming=true",
			expectedQuery: `SELECT (.+) FROM "event" WHERE \(\("datetime_end" >= (.+)\) OR \(\("datetime_end" IS NULL\) AND \("datetime_start" >= (.+)\)\)\) ORDER BY "datetime_start" ASC`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, cleanup := SetupTestDB(t)
			defer cleanup()

			open := MockEvent()
			open.Event_ID = 31
			open.Datetime_End = nil
			mock.ExpectQuery(tt.expectedQuery).WillReturnRows(eventRows(MockEvent(), open))

			c, w := SetupTestContext()
			SetAuthenticatedUser(c, MockUser(), false)
			SetRequest(c, http.MethodGet, "/events"+tt.query)

			GetEvents(c)

			assert.Equal(t, http.StatusOK, w.Code)
			var result []models.Event
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			require.Len(t, result, 2)
			assert.NotNil(t, result[0].Datetime_End)
			assert.Nil(t, result[1].Datetime_End)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetEvent(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM "event" WHERE \("event_id" = 30\)`).WillReturnRows(eventRows(MockEvent()))

	c, w := SetupTestContext()
	SetAuthenticatedUser(c, MockUser(), false)
	c.Params = gin.Params{{Key: "event_id", Value: "30"}}
	SetRequest(c, http.MethodGet, "/events/30")

	GetEvent(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Youth Night", DecodeJSON(t, w)["title"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEvent(t *testing.T) {
	start := time.Date(2026, 11, 7, 19, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	early := start.Add(-time.Hour)

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
	}{
		{
			name:           "creates event",
			requestBody:    models.EventCreate{Title: "Youth Night", Location: "Hall", Datetime_Start: start, Datetime_End: &end},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "open ended event",
			requestBody:    models.EventCreate{Title: "Adoration", Datetime_Start: start},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "end before start",
			requestBody:    models.EventCreate{Title: "Youth Night", Datetime_Start: start, Datetime_End: &early},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing start",
			requestBody:    map[string]string{"title": "Youth Night"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, cleanup := SetupTestDB(t)
			defer cleanup()

			if tt.expectedStatus == http.StatusCreated {
				mock.ExpectQuery(`INSERT INTO "event" (.+) RETURNING "event_id"`).
					WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow(31))
			}

			c, w := SetupTestContext()
			SetAuthenticatedUser(c, MockYouthLeader(), false)
			SetJSONBody(c, http.MethodPost, "/admin/events", tt.requestBody)

			CreateEvent(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusCreated {
				assert.EqualValues(t, 31, DecodeJSON(t, w)["eventId"])
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateEvent(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE "event" SET (.+)CASE WHEN datetime_start = (.+) THEN reminder_sent ELSE FALSE END(.+) WHERE \("event_id" = 30\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, w := SetupTestContext()
	SetAuthenticatedUser(c, MockYouthLeader(), false)
	c.Params = gin.Params{{Key: "event_id", Value: "30"}}
	SetJSONBody(c, http.MethodPut, "/admin/events/30", models.EventCreate{
		Title:          "Youth Night",
		Datetime_Start: time.Date(2026, 11, 8, 19, 0, 0, 0, time.UTC),
	})

	UpdateEvent(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEvent(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM "event" WHERE \("event_id" = 30\)`).WillReturnResult(sqlmock.NewResult(0, 0))

	c, w := SetupTestContext()
	SetAuthenticatedUser(c, MockAdminUser(), true)
	c.Params = gin.Params{{Key: "event_id", Value: "30"}}
	SetRequest(c, http.MethodDelete, "/admin/events/30")

	DeleteEvent(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
