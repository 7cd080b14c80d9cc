package uplink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sweeney/range-sensor/internal/fault"
)

// DefaultAuthURL is the identity toolkit endpoint used for email/password sign-in.
const DefaultAuthURL = "https://identitytoolkit.googleapis.com"

// RTDBConfig holds realtime-database REST settings.
type RTDBConfig struct {
	URL      string // database root, e.g. https://example-default-rtdb.firebaseio.com/
	APIKey   string
	Email    string
	Password string
	AuthURL  string // defaults to DefaultAuthURL
}

// RTDBUplink writes readings to a realtime database over its REST API.
// Values are stored as JSON strings at the upload path.
type RTDBUplink struct {
	cfg    RTDBConfig
	client *http.Client
	token  string
	ready  bool
}

// NewRTDBUplink creates an uplink for cfg. It does not connect.
func NewRTDBUplink(cfg RTDBConfig) *RTDBUplink {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	return &RTDBUplink{
		cfg:    cfg,
		client: &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken string `json:"idToken"`
}

type authError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type dbError struct {
	Error string `json:"error"`
}

// Connect signs in with email/password, bounded by ctx. Without credentials
// it only checks that the database answers.
func (u *RTDBUplink) Connect(ctx context.Context) error {
	if u.ready {
		return nil
	}
	if u.cfg.APIKey == "" {
		if err := u.probe(ctx); err != nil {
			return err
		}
		u.ready = true
		return nil
	}

	body, err := json.Marshal(signInRequest{Email: u.cfg.Email, Password: u.cfg.Password, ReturnSecureToken: true})
	if err != nil {
		return fmt.Errorf("marshal sign-in: %w", err)
	}
	endpoint := strings.TrimRight(u.cfg.AuthURL, "/") + "/v1/accounts:signInWithPassword?key=" + url.QueryEscape(u.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return fault.Wrap(fault.NetworkUnavailable, "rtdb sign-in", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK {
		var ae authError
		msg := resp.Status
		if json.Unmarshal(data, &ae) == nil && ae.Error.Message != "" {
			msg = ae.Error.Message
		}
		return &fault.E{C: fault.NetworkUnavailable, Op: "rtdb sign-in", Status: resp.StatusCode, Msg: msg}
	}

	var sr signInResponse
	if err := json.Unmarshal(data, &sr); err != nil || sr.IDToken == "" {
		return &fault.E{C: fault.NetworkUnavailable, Op: "rtdb sign-in", Status: resp.StatusCode, Msg: "no id token in response", Err: err}
	}
	u.token = sr.IDToken
	u.ready = true
	return nil
}

func (u *RTDBUplink) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.endpoint("/", "shallow=true"), nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return fault.Wrap(fault.NetworkUnavailable, "rtdb probe", err)
	}
	// Any HTTP answer, even a rules rejection, means the network is up.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// Upload stores payload as a string value at path.
func (u *RTDBUplink) Upload(ctx context.Context, path string, payload []byte) error {
	if !u.ready {
		return &fault.E{C: fault.NetworkUnavailable, Op: "rtdb put", Msg: "not connected"}
	}
	body, err := json.Marshal(string(payload))
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	query := ""
	if u.token != "" {
		query = "auth=" + url.QueryEscape(u.token)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.endpoint(path, query), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build put request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return fault.Wrap(fault.UploadFailure, "rtdb put", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode/100 != 2 {
		var de dbError
		msg := resp.Status
		if json.Unmarshal(data, &de) == nil && de.Error != "" {
			msg = de.Error
		}
		return &fault.E{C: fault.UploadFailure, Op: "rtdb put", Status: resp.StatusCode, Msg: msg}
	}
	return nil
}

// Off drops the session and idle connections.
func (u *RTDBUplink) Off() error {
	u.token = ""
	u.ready = false
	u.client.CloseIdleConnections()
	return nil
}

func (u *RTDBUplink) endpoint(path, query string) string {
	path = strings.Trim(path, "/")
	s := strings.TrimRight(u.cfg.URL, "/") + "/"
	if path != "" {
		s += path
	}
	s += ".json"
	if query != "" {
		s += "?" + query
	}
	return s
}

func timeUntil(t time.Time) time.Duration {
	d := time.Until(t)
	if d < time.Millisecond {
		return time.Millisecond
	}
	return d
}
