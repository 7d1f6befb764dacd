// Package platform is a typed client for the remote reservation platform
// API. All restaurant, table and reservation state lives behind that API;
// this package only issues requests and decodes responses.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	hc      *http.Client
	baseURL string
	apiKey  string
	bearer  string
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		hc:      &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// WithToken returns a copy of the client that sends the staff bearer token.
// The zero-token client only reaches public endpoints.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.bearer = token
	return &cp
}

// SearchQuery narrows the public restaurant listing.
type SearchQuery struct {
	Text string
	City string
}

func (c *Client) SearchRestaurants(ctx context.Context, q SearchQuery) ([]Restaurant, error) {
	params := url.Values{}
	if q.Text != "" {
		params.Set("q", q.Text)
	}
	if q.City != "" {
		params.Set("city", q.City)
	}
	var out []Restaurant
	if err := c.do(ctx, http.MethodGet, "/api/v1/restaurants", params, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetRestaurant(ctx context.Context, id string) (Restaurant, error) {
	var out Restaurant
	err := c.do(ctx, http.MethodGet, "/api/v1/restaurants/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (c *Client) CreateReservation(ctx context.Context, restaurantID string, req ReservationRequest) (Reservation, error) {
	var out Reservation
	err := c.do(ctx, http.MethodPost,
		"/api/v1/restaurants/"+url.PathEscape(restaurantID)+"/reservations", nil, req, &out)
	return out, err
}

// ListReservations returns a restaurant's reservations for one calendar day.
// Staff endpoint.
func (c *Client) ListReservations(ctx context.Context, restaurantID string, date time.Time) ([]Reservation, error) {
	params := url.Values{}
	if !date.IsZero() {
		params.Set("date", date.Format("2006-01-02"))
	}
	var out []Reservation
	err := c.do(ctx, http.MethodGet,
		"/api/v1/restaurants/"+url.PathEscape(restaurantID)+"/reservations", params, nil, &out)
	return out, err
}

// UpdateReservationStatus requests a lifecycle transition. Conflicts (e.g.
// cancelling an already checked-in reservation) are the platform's call and
// come back as APIError.
func (c *Client) UpdateReservationStatus(ctx context.Context, reservationID string, action Action) (Reservation, error) {
	var out Reservation
	err := c.do(ctx, http.MethodPost,
		"/api/v1/reservations/"+url.PathEscape(reservationID)+"/"+string(action), nil, nil, &out)
	return out, err
}

func (c *Client) ListTables(ctx context.Context, restaurantID string) ([]Table, error) {
	var out []Table
	err := c.do(ctx, http.MethodGet,
		"/api/v1/restaurants/"+url.PathEscape(restaurantID)+"/tables", nil, nil, &out)
	return out, err
}

func (c *Client) CreateTable(ctx context.Context, restaurantID, name string, seats int) (Table, error) {
	body := struct {
		Name  string `json:"name"`
		Seats int    `json:"seats"`
	}{Name: name, Seats: seats}
	var out Table
	err := c.do(ctx, http.MethodPost,
		"/api/v1/restaurants/"+url.PathEscape(restaurantID)+"/tables", nil, body, &out)
	return out, err
}

func (c *Client) DeleteTable(ctx context.Context, tableID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/tables/"+url.PathEscape(tableID), nil, nil, nil)
}

func (c *Client) AssignTable(ctx context.Context, reservationID, tableID string) (Reservation, error) {
	body := struct {
		TableID string `json:"tableId"`
	}{TableID: tableID}
	var out Reservation
	err := c.do(ctx, http.MethodPatch,
		"/api/v1/reservations/"+url.PathEscape(reservationID)+"/table", nil, body, &out)
	return out, err
}

// Ping verifies the API key (and bearer token, if set) against the platform.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/v1/health", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("platform: decode response: %w", err)
	}
	return nil
}
