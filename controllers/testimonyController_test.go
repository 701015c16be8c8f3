package controllers

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Churchly/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testimonyRowColumns = []string{
	"testimony_id", "user_profile_id", "author_name", "title", "body", "datetime_create", "datetime_update",
}

func testimonyRows(testimonies ...models.Testimony) *sqlmock.Rows {
	rows := sqlmock.NewRows(testimonyRowColumns)
	for _, t := range testimonies {
		rows.AddRow(t.Testimony_ID, t.User_Profile_ID, t.Author_Name, t.Title, t.Body, t.Datetime_Create, t.Datetime_Update)
	}
	return rows
}

func expectReactionSummary(mock sqlmock.Sqlmock, counts [][]driver.Value, mine []string) {
	grouped := sqlmock.NewRows([]string{"testimony_id", "reaction_type", "count"})
	for _, row := range counts {
		grouped.AddRow(row...)
	}
	mock.ExpectQuery(`SELECT "testimony_id", "reaction_type", COUNT\(\*\) AS "count" FROM "testimony_reaction"`).
		WillReturnRows(grouped)

	own := sqlmock.NewRows([]string{"testimony_id", "reaction_type"})
	for _, r := range mine {
		own.AddRow(10, r)
	}
	mock.ExpectQuery(`SELECT "testimony_id", "reaction_type" FROM "testimony_reaction" WHERE (.+)"user_profile_id"`).
		WillReturnRows(own)
}

func TestGetTestimonies(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(mock sqlmock.Sqlmock)
		expectedStatus int
		expectedLen    int
	}{
		{
			name: "lists with reaction counts",
			setupMock: func(mock sqlmock.Sqlmock) {
				second := MockTestimony()
				second.Testimony_ID = 11
				mock.ExpectQuery(`SELECT (.+) FROM "testimony" WHERE \("deleted" IS FALSE\) ORDER BY "datetime_create" DESC, "testimony_id" DESC LIMIT 50`).
					WillReturnRows(testimonyRows(MockTestimony(), second))
				expectReactionSummary(mock, [][]driver.Value{{10, models.ReactionAmen, 3}, {11, models.ReactionPray, 1}},
					[]string{models.ReactionAmen})
			},
			expectedStatus: http.StatusOK,
			expectedLen:    2,
		},
		{
			name:  "limit is capped and offset applied",
			query: "?limit=500&offset=20",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM "testimony" (.+) LIMIT 100 OFFSET 20`).
					WillReturnRows(testimonyRows())
			},
			expectedStatus: http.StatusOK,
			expectedLen:    0,
		},
		{
			name:           "bad offset",
			query:          "?offset=-1",
			setupMock:      func(mock sqlmock.Sqlmock) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM "testimony"`).WillReturnError(errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, cleanup := SetupTestDB(t)
			defer cleanup()

			tt.setupMock(mock)

			c, w := SetupTestContext()
			SetAuthenticatedUser(c, MockUser(), false)
			SetRequest(c, http.MethodGet, "/api/testimonies"+tt.query)

			GetTestimonies(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var result []models.TestimonyWithReactions
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
				require.Len(t, result, tt.expectedLen)
				if tt.expectedLen > 0 {
					assert.Equal(t, 3, result[0].Reactions[models.ReactionAmen])
					assert.Equal(t, 0, result[0].Reactions[models.ReactionHeart])
					assert.Equal(t, []string{models.ReactionAmen}, result[0].MyReactions)
					assert.Equal(t, []string{}, result[1].MyReactions)
				}
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetTestimony(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		found          bool
		expectedStatus int
	}{
		{name: "found", id: "10", found: true, expectedStatus: http.StatusOK},
		{name: "deleted or missing", id: "10", expectedStatus: http.StatusNotFound},
		{name: "invalid id", id: "ten", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, cleanup := SetupTestDB(t)
			defer cleanup()

			if tt.id == "10" {
				rows := testimonyRows()
				if tt.found {
					rows = testimonyRows(MockTestimony())
				}
				mock.ExpectQuery(`SELECT (.+) FROM "testimony" WHERE \(\("testimony_id" = 10\) AND \("deleted" IS FALSE\)\)`).
					WillReturnRows(rows)
				if tt.found {
					expectReactionSummary(mock, nil, nil)
				}
			}

			c, w := SetupTestContext()
			SetAuthenticatedUser(c, MockUser(), false)
			c.Params = gin.Params{{Key: "id", Value: tt.id}}
			SetRequest(c, http.MethodGet, "/api/testimonies/"+tt.id)

			GetTestimony(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateTestimony(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		expectInsert   bool
		expectedStatus int
	}{
		{
			name:           "creates testimony",
			requestBody:    models.TestimonyCreate{Title: "Answered prayer", Body: "She is home."},
			expectInsert:   true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "blank body",
			requestBody:    models.TestimonyCreate{Title: "Answered prayer", Body: " "},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, cleanup := SetupTestDB(t)
			defer cleanup()

			if tt.expectInsert {
				mock.ExpectQuery(`INSERT INTO "testimony" (.+) RETURNING "testimony_id"`).
					WillReturnRows(sqlmock.NewRows([]string{"testimony_id"}).AddRow(42))
			}

			c, w := SetupTestContext()
			SetAuthenticatedUser(c, MockUser(), false)
			SetJSONBody(c, http.MethodPost, "/api/testimonies", tt.requestBody)

			CreateTestimony(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectInsert {
				response := DecodeJSON(t, w)
				assert.EqualValues(t, 42, response["testimonyId"])
				assert.Equal(t, MockUser().DisplayName(), response["authorName"])
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDeleteTestimony(t *testing.T) {
	tests := []struct {
		name           string
		user           models.UserProfile
		isAdmin        bool
		expectedStatus int
	}{
		{name: "author deletes", user: MockUser(), expectedStatus: http.StatusOK},
		{name: "admin deletes", user: MockAdminUser(), isAdmin: true, expectedStatus: http.StatusOK},
		{name: "other member forbidden", user: MockYouthLeader(), expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, cleanup := SetupTestDB(t)
			defer cleanup()

			mock.ExpectQuery(`SELECT (.+) FROM "testimony"`).WillReturnRows(testimonyRows(MockTestimony()))
			if tt.expectedStatus == http.StatusOK {
				mock.ExpectExec(`UPDATE "testimony" SET (.+) WHERE \("testimony_id" = 10\)`).
					WillReturnResult(sqlmock.NewResult(0, 1))
			}

			c, w := SetupTestContext()
			SetAuthenticatedUser(c, tt.user, tt.isAdmin)
			c.Params = gin.Params{{Key: "id", Value: "10"}}
			SetRequest(c, http.MethodDelete, "/api/testimonies/10")

			DeleteTestimony(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReactToTestimony(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		existing       int
		expectedStatus int
		reacted        bool
	}{
		{
			name:           "adds reaction",
			requestBody:    models.TestimonyReactionCreate{Reaction_Type: models.ReactionAmen},
			existing:       0,
			expectedStatus: http.StatusOK,
			reacted:        true,
		},
		{
			name:           "second tap removes reaction",
			requestBody:    models.TestimonyReactionCreate{Reaction_Type: models.ReactionAmen},
			existing:       1,
			expectedStatus: http.StatusOK,
			reacted:        false,
		},
		{
			name:           "unknown reaction type",
			requestBody:    map[string]string{"reactionType": "clap"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, cleanup := SetupTestDB(t)
			defer cleanup()

			// the author is reacting to their own testimony so no notification fires
			if tt.expectedStatus == http.StatusOK {
				mock.ExpectQuery(`SELECT (.+) FROM "testimony" WHERE`).WillReturnRows(testimonyRows(MockTestimony()))
				mock.ExpectQuery(`SELECT COUNT\(\*\) AS "count" FROM "testimony_reaction"`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.existing))
				if tt.reacted {
					mock.ExpectExec(`INSERT INTO "testimony_reaction" (.+) ON CONFLICT DO NOTHING`).
						WillReturnResult(sqlmock.NewResult(1, 1))
					expectReactionSummary(mock, [][]driver.Value{{10, models.ReactionAmen, 1}}, []string{models.ReactionAmen})
				} else {
					mock.ExpectExec(`DELETE FROM "testimony_reaction"`).WillReturnResult(sqlmock.NewResult(0, 1))
					expectReactionSummary(mock, nil, nil)
				}
			}

			c, w := SetupTestContext()
			SetAuthenticatedUser(c, MockUser(), false)
			c.Params = gin.Params{{Key: "id", Value: "10"}}
			SetJSONBody(c, http.MethodPost, "/api/testimonies/10/reactions", tt.requestBody)

			ReactToTestimony(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				response := DecodeJSON(t, w)
				assert.Equal(t, tt.reacted, response["reacted"])
				reactions := response["reactions"].(map[string]interface{})
				assert.Len(t, reactions, len(models.ReactionTypes))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReactionSummaryEmpty(t *testing.T) {
	counts, mine, err := reactionSummary(nil, 1)
	require.NoError(t, err)
	assert.Empty(t, counts)
	assert.Empty(t, mine)
}
