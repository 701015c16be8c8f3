package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Churchly/models"
)

type AuthResponse struct {
	Message   string             `json:"message"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	User      models.UserProfile `json:"user"`
}

type ProfileResponse struct {
	User  models.UserProfile `json:"user"`
	Admin bool               `json:"admin"`
}

type ReactionResult struct {
	TestimonyID int            `json:"testimonyId"`
	Reacted     bool           `json:"reacted"`
	Reactions   map[string]int `json:"reactions"`
	MyReactions []string       `json:"myReactions"`
}

type PrayerListOptions struct {
	Mine   bool
	Limit  int
	Before time.Time
}

func (c *Client) authenticate(ctx context.Context, path string, body interface{}) (*AuthResponse, error) {
	var auth AuthResponse
	if err := c.do(ctx, http.MethodPost, path, body, &auth); err != nil {
		return nil, err
	}
	if auth.Token == "" {
		return nil, fmt.Errorf("%s: response had no token", path)
	}
	if err := c.setToken(auth.Token); err != nil {
		return nil, err
	}
	return &auth, nil
}

// Login accepts a username or an email address as identifier.
func (c *Client) Login(ctx context.Context, identifier, password string) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", models.Login{Username: identifier, Password: password})
}

// AdminLogin is Login against the admin portal; the server refuses members.
func (c *Client) AdminLogin(ctx context.Context, identifier, password string) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/admin/login", models.Login{Username: identifier, Password: password})
}

func (c *Client) Signup(ctx context.Context, signup models.UserProfileSignup) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/signup", signup)
}

func (c *Client) Profile(ctx context.Context) (*ProfileResponse, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var profile ProfileResponse
	if err := c.do(ctx, http.MethodGet, "/users/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) ListPrayerRequests(ctx context.Context, opts PrayerListOptions) ([]models.PrayerRequest, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	query := url.Values{}
	if opts.Mine {
		query.Set("mine", "true")
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if !opts.Before.IsZero() {
		query.Set("before", opts.Before.UTC().Format(time.RFC3339))
	}

	path := "/api/prayers"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	requests := []models.PrayerRequest{}
	if err := c.do(ctx, http.MethodGet, path, nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (c *Client) CreatePrayerRequest(ctx context.Context, text string) (*models.PrayerRequest, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var request models.PrayerRequest
	err := c.do(ctx, http.MethodPost, "/api/prayers", models.PrayerRequestCreate{RequestText: text}, &request)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// RespondToPrayerRequest appends a response such as "Praying" or "Amen".
func (c *Client) RespondToPrayerRequest(ctx context.Context, id, responseType string) (*models.PrayerRequest, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var request models.PrayerRequest
	path := "/api/prayers/" + url.PathEscape(id) + "/responses"
	if err := c.do(ctx, http.MethodPost, path, models.PrayerResponseCreate{Type: responseType}, &request); err != nil {
		return nil, err
	}
	return &request, nil
}

func (c *Client) ListTestimonies(ctx context.Context, limit, offset int) ([]models.TestimonyWithReactions, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	path := "/api/testimonies"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	testimonies := []models.TestimonyWithReactions{}
	if err := c.do(ctx, http.MethodGet, path, nil, &testimonies); err != nil {
		return nil, err
	}
	return testimonies, nil
}

func (c *Client) CreateTestimony(ctx context.Context, title, body string) (*models.TestimonyWithReactions, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var testimony models.TestimonyWithReactions
	err := c.do(ctx, http.MethodPost, "/api/testimonies", models.TestimonyCreate{Title: title, Body: body}, &testimony)
	if err != nil {
		return nil, err
	}
	return &testimony, nil
}

// ReactToTestimony toggles reactionType for the logged in user.
func (c *Client) ReactToTestimony(ctx context.Context, testimonyID int, reactionType string) (*ReactionResult, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var result ReactionResult
	path := "/api/testimonies/" + strconv.Itoa(testimonyID) + "/reactions"
	if err := c.do(ctx, http.MethodPost, path, models.TestimonyReactionCreate{Reaction_Type: reactionType}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	announcements := []models.Announcement{}
	if err := c.do(ctx, http.MethodGet, "/announcements", nil, &announcements); err != nil {
		return nil, err
	}
	return announcements, nil
}

func (c *Client) ListEvents(ctx context.Context, upcoming bool) ([]models.Event, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	path := "/events"
	if upcoming {
		path += "?upcoming=true"
	}
	events := []models.Event{}
	if err := c.do(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}
