// Package rest is the HTTP client the upload screens talk through. Every
// response passes one filter: a 401 from any authenticated call maps to
// ErrAuthExpired exactly once per request, so session-expiry handling lives
// here and nowhere else.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"tripy/photo-app/internal/client/session"
)

// --- Error Definitions ---
var (
	// ErrAuthExpired signals the server answered 401: the session is dead
	// and the caller must tear it down and return to login.
	ErrAuthExpired = errors.New("session expired")

	// ErrServer wraps any non-2xx response other than 401.
	ErrServer = errors.New("server error")
)

// Trip is the wire shape of one selectable trip.
type Trip struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// UploadAck is the server's acknowledgement for a stored file.
type UploadAck struct {
	Message  string `json:"message"`
	FileName string `json:"fileName"`
	ID       string `json:"id"`
}

const defaultTimeout = 30 * time.Second

// Client talks to the Tripy API. Token is set after login and sent as a
// bearer credential on every request that has one.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// NewClient creates a client for the API rooted at baseURL (the part
// before /api, e.g. "http://192.168.10.56:5000").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SetToken installs the bearer token used for authenticated calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

// do executes the request and applies the shared response filter: 401 maps
// to ErrAuthExpired, any other non-2xx to ErrServer carrying the server's
// error message. On success the caller owns the body.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, ErrAuthExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := readErrorMessage(resp.Body)
		resp.Body.Close()
		if msg == "" {
			return nil, fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrServer, resp.StatusCode, msg)
	}

	return resp, nil
}

// readErrorMessage pulls the {"error": "..."} message out of an error body.
func readErrorMessage(r io.Reader) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&body); err != nil {
		return ""
	}
	return body.Error
}

// postJSON issues a JSON POST and decodes the response into out (when out
// is non-nil).
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Login authenticates and returns the session the caller should persist.
// The client keeps the token for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	payload := map[string]string{"email": email, "password": password}

	var result struct {
		Token string `json:"token"`
		User  struct {
			UserID   string `json:"userId"`
			UserName string `json:"userName"`
		} `json:"user"`
	}
	// A 401 here means bad credentials, not an expired session, but the
	// outcome for the caller is the same: no session.
	if err := c.postJSON(ctx, "/api/users/login", payload, &result); err != nil {
		return nil, err
	}

	c.token = result.Token
	return &session.Session{
		UserID:   result.User.UserID,
		UserName: result.User.UserName,
		Token:    result.Token,
	}, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	payload := map[string]string{"name": name, "email": email, "password": password}
	return c.postJSON(ctx, "/api/users/register", payload, nil)
}

// FetchTripTitles retrieves the selectable trips for the user. An empty
// list is a valid result.
func (c *Client) FetchTripTitles(ctx context.Context, userID string) ([]Trip, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/labels/getTripTitle/"+userID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Trips []Trip `json:"trips"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if result.Trips == nil {
		result.Trips = []Trip{}
	}
	return result.Trips, nil
}

// CreateTrip creates a trip for the authenticated user.
func (c *Client) CreateTrip(ctx context.Context, title string) (*Trip, error) {
	var trip Trip
	if err := c.postJSON(ctx, "/api/trips", map[string]string{"title": title}, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

// Upload sends one file and its trip association as a multipart form with
// fields "file" and "tripId".
func (c *Client) Upload(ctx context.Context, tripID int, fileName, mimeType string, contents io.Reader) (*UploadAck, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	partHeader.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, contents); err != nil {
		return nil, err
	}
	if err := writer.WriteField("tripId", strconv.Itoa(tripID)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var ack UploadAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// Logout notifies the server. Callers treat this as best-effort and tear
// down their local session regardless of the result.
func (c *Client) Logout(ctx context.Context) error {
	return c.postJSON(ctx, "/api/logout", struct{}{}, nil)
}
