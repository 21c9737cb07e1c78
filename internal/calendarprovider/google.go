package calendarprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/haasonsaas/brickwork/internal/kinderr"
	"github.com/haasonsaas/brickwork/pkg/models"
)

const googleCalendarBaseURL = "https://www.googleapis.com/calendar/v3"

// GoogleConfig configures a GoogleProvider.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenStore   TokenStore
	BaseURL      string // override for testing
}

// GoogleProvider implements Provider against the Google Calendar v3 REST API,
// authenticating via a per-user refreshed OAuth2 token (§5, §6).
type GoogleProvider struct {
	refresher *tokenRefresher
	baseURL   string
	client    *http.Client
}

// NewGoogleProvider constructs a GoogleProvider.
func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	oauthCfg := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}
	base := cfg.BaseURL
	if base == "" {
		base = googleCalendarBaseURL
	}
	return &GoogleProvider{
		refresher: newTokenRefresher(oauthCfg, cfg.TokenStore),
		baseURL:   base,
		client:    http.DefaultClient,
	}
}

func (p *GoogleProvider) authedRequest(ctx context.Context, userID, method, path string, body io.Reader) (*http.Request, error) {
	tok, err := p.refresher.tokenFor(ctx, userID)
	if err != nil {
		return nil, kinderr.Wrap(kinderr.Auth, "failed to obtain calendar credentials", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	tok.SetAuthHeader(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (p *GoogleProvider) do(req *http.Request, out interface{}) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return kinderr.Wrap(kinderr.Upstream, "calendar request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return kinderr.Wrap(kinderr.Upstream, "failed to read calendar response", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return kinderr.New(kinderr.Auth, fmt.Sprintf("calendar request denied: %s", string(data)))
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return kinderr.New(kinderr.Upstream, fmt.Sprintf("calendar upstream error %d: %s", resp.StatusCode, string(data)))
	}
	if resp.StatusCode >= 400 {
		return kinderr.New(kinderr.Validation, fmt.Sprintf("calendar request rejected %d: %s", resp.StatusCode, string(data)))
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

type googleCalendarListEntry struct {
	ID         string `json:"id"`
	Summary    string `json:"summary"`
	Primary    bool   `json:"primary"`
	AccessRole string `json:"accessRole"`
}

type googleCalendarListResponse struct {
	Items []googleCalendarListEntry `json:"items"`
}

// ListCalendars implements Provider.
func (p *GoogleProvider) ListCalendars(ctx context.Context, userID string) ([]Calendar, error) {
	req, err := p.authedRequest(ctx, userID, http.MethodGet, "/users/me/calendarList", nil)
	if err != nil {
		return nil, err
	}
	var out googleCalendarListResponse
	if err := p.do(req, &out); err != nil {
		return nil, err
	}
	calendars := make([]Calendar, 0, len(out.Items))
	for _, item := range out.Items {
		calendars = append(calendars, Calendar{
			ID:       item.ID,
			Name:     item.Summary,
			Primary:  item.Primary,
			ReadOnly: item.AccessRole == "reader" || item.AccessRole == "freeBusyReader",
		})
	}
	return calendars, nil
}

type googleEventDateTime struct {
	DateTime time.Time `json:"dateTime,omitempty"`
	Date     string    `json:"date,omitempty"`
	TimeZone string    `json:"timeZone,omitempty"`
}

type googleEvent struct {
	ID          string              `json:"id,omitempty"`
	Summary     string              `json:"summary"`
	Description string              `json:"description,omitempty"`
	Start       googleEventDateTime `json:"start"`
	End         googleEventDateTime `json:"end"`
	Recurrence  []string            `json:"recurrence,omitempty"`
}

type googleEventsListResponse struct {
	Items []googleEvent `json:"items"`
}

func (e googleEvent) toModel(userID string) models.Event {
	ev := models.Event{
		Title:       e.Summary,
		Description: e.Description,
		Source:      models.SourceExternal,
		ExternalID:  e.ID,
		UserID:      userID,
		IsMoveable:  false,
	}
	if e.Start.Date != "" {
		ev.IsAllDay = true
		if t, err := time.Parse("2006-01-02", e.Start.Date); err == nil {
			ev.StartTime = t
		}
		if t, err := time.Parse("2006-01-02", e.End.Date); err == nil {
			ev.EndTime = t
		}
	} else {
		ev.StartTime = e.Start.DateTime
		ev.EndTime = e.End.DateTime
		ev.TimeZone = e.Start.TimeZone
	}
	if len(e.Recurrence) > 0 {
		ev.RecurrenceRule = e.Recurrence[0]
	}
	return ev
}

func fromModel(ev models.Event) googleEvent {
	g := googleEvent{
		ID:          ev.ExternalID,
		Summary:     ev.Title,
		Description: ev.Description,
	}
	if ev.IsAllDay {
		g.Start = googleEventDateTime{Date: ev.StartTime.Format("2006-01-02")}
		g.End = googleEventDateTime{Date: ev.EndTime.Format("2006-01-02")}
	} else {
		g.Start = googleEventDateTime{DateTime: ev.StartTime, TimeZone: ev.TimeZone}
		g.End = googleEventDateTime{DateTime: ev.EndTime, TimeZone: ev.TimeZone}
	}
	if ev.RecurrenceRule != "" {
		g.Recurrence = []string{ev.RecurrenceRule}
	}
	return g
}

// ListEvents implements Provider.
func (p *GoogleProvider) ListEvents(ctx context.Context, userID, calendarID string, from, to time.Time) ([]models.Event, error) {
	q := url.Values{}
	q.Set("timeMin", from.UTC().Format(time.RFC3339))
	q.Set("timeMax", to.UTC().Format(time.RFC3339))
	q.Set("singleEvents", "true")

	req, err := p.authedRequest(ctx, userID, http.MethodGet, fmt.Sprintf("/calendars/%s/events?%s", url.PathEscape(calendarID), q.Encode()), nil)
	if err != nil {
		return nil, err
	}
	var out googleEventsListResponse
	if err := p.do(req, &out); err != nil {
		return nil, err
	}
	events := make([]models.Event, 0, len(out.Items))
	for _, item := range out.Items {
		events = append(events, item.toModel(userID))
	}
	return events, nil
}

// CreateEvent implements Provider.
func (p *GoogleProvider) CreateEvent(ctx context.Context, userID, calendarID string, event models.Event) (models.Event, error) {
	payload, err := json.Marshal(fromModel(event))
	if err != nil {
		return models.Event{}, err
	}
	req, err := p.authedRequest(ctx, userID, http.MethodPost, fmt.Sprintf("/calendars/%s/events", url.PathEscape(calendarID)), bytes.NewReader(payload))
	if err != nil {
		return models.Event{}, err
	}
	var out googleEvent
	if err := p.do(req, &out); err != nil {
		return models.Event{}, err
	}
	return out.toModel(userID), nil
}

// UpdateEvent implements Provider.
func (p *GoogleProvider) UpdateEvent(ctx context.Context, userID, calendarID string, event models.Event) (models.Event, error) {
	if event.ExternalID == "" {
		return models.Event{}, kinderr.New(kinderr.Validation, "update requires an external_id")
	}
	payload, err := json.Marshal(fromModel(event))
	if err != nil {
		return models.Event{}, err
	}
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(calendarID), url.PathEscape(event.ExternalID))
	req, err := p.authedRequest(ctx, userID, http.MethodPut, path, bytes.NewReader(payload))
	if err != nil {
		return models.Event{}, err
	}
	var out googleEvent
	if err := p.do(req, &out); err != nil {
		return models.Event{}, err
	}
	return out.toModel(userID), nil
}

// DeleteEvent implements Provider.
func (p *GoogleProvider) DeleteEvent(ctx context.Context, userID, calendarID, eventID string) error {
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(calendarID), url.PathEscape(eventID))
	req, err := p.authedRequest(ctx, userID, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return p.do(req, nil)
}

// ValidateCredentials implements Provider by attempting a lightweight
// calendar-list fetch.
func (p *GoogleProvider) ValidateCredentials(ctx context.Context, userID string) error {
	_, err := p.ListCalendars(ctx, userID)
	return err
}
