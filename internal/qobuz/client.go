// Package qobuz implements the signed-request client for the Qobuz
// catalog API.
package qobuz

import (
	"context"
	"crypto/md5" //nolint:gosec // The remote signature scheme is MD5.
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/OrfiDev/orpheusdl-qobuz/internal/core"
)

const (
	// DefaultBaseURL is the production catalog API base path.
	DefaultBaseURL = "https://www.qobuz.com/api.json/0.2/"
	// RequestTimeout bounds a single API round trip.
	RequestTimeout = 30 * time.Second
)

// Recorder receives per-request notifications for metrics. Implementations
// must be nil-safe via the client's guard, not their own.
type Recorder interface {
	RecordRequest(endpoint, status string)
	ObserveRequest(endpoint string, d time.Duration)
}

// Client talks to the Qobuz API. The auth token is the only mutable field;
// it is set after Login or restored from the settings store. Client assumes
// single-threaded use.
type Client struct {
	baseURL   string
	appID     string
	appSecret string
	authToken string
	http      *http.Client
	logger    *zap.Logger
	recorder  Recorder
	now       func() time.Time
}

func NewClient(cfg *core.QobuzConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   DefaultBaseURL,
		appID:     cfg.AppID,
		appSecret: cfg.AppSecret,
		http: &http.Client{
			Timeout: RequestTimeout,
		},
		logger: logger,
		now:    time.Now,
	}
}

// SetBaseURL overrides the API base path. Used by tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// SetRecorder attaches a metrics recorder.
func (c *Client) SetRecorder(r Recorder) {
	c.recorder = r
}

// SetAuthToken installs a session token, typically restored from the
// settings store.
func (c *Client) SetAuthToken(token string) {
	c.authToken = token
}

func (c *Client) AuthToken() string {
	return c.authToken
}

// headers returns the static session header set. Only the auth token field
// varies, and only between "absent" and "present".
func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("X-Device-Platform", "android")
	h.Set("X-Device-Model", "Pixel 3")
	h.Set("X-Device-Os-Version", "10")
	h.Set("X-Device-Manufacturer-Id", "ffffffff-5783-1f51-ffff-ffffef05ac4a")
	h.Set("X-App-Version", "5.16.1.5")
	h.Set("User-Agent",
		"Dalvik/2.1.0 (Linux; U; Android 10; Pixel 3 Build/QP1A.190711.020))"+
			"QobuzMobileAndroid/5.16.1.5-b21041415")
	if c.authToken != "" {
		h.Set("X-User-Auth-Token", c.authToken)
	}
	return h
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	start := c.now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+endpoint+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}
	req.Header = c.headers()

	resp, err := c.http.Do(req)
	if err != nil {
		c.record(endpoint, "transport_error", start)
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(endpoint, "read_error", start)
		return fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}

	c.record(endpoint, strconv.Itoa(resp.StatusCode), start)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
	default:
		c.logger.Warn("API request rejected",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode))
		return &core.APIError{Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) record(endpoint, status string, start time.Time) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordRequest(endpoint, status)
	c.recorder.ObserveRequest(endpoint, c.now().Sub(start))
}

// Sign computes the request signature for a method path and parameter set.
// The signed string is the method path without slashes, followed by every
// parameter except app_id and user_auth_token as key+value in key order,
// the unix timestamp, and the app secret. The server recomputes the same
// digest and rejects mismatches.
func Sign(method string, params url.Values, secret string, ts time.Time) (timestamp, signature string) {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(method, "/", ""))

	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "app_id" || k == "user_auth_token" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params.Get(k))
	}

	timestamp = strconv.FormatInt(ts.Unix(), 10)
	b.WriteString(timestamp)
	b.WriteString(secret)

	return timestamp, hashMD5(b.String())
}

func hashMD5(s string) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec // Dictated by the remote protocol.
	return hex.EncodeToString(sum[:])
}

func (c *Client) sign(method string, params url.Values) {
	ts, sig := Sign(method, params, c.appSecret, c.now())
	params.Set("request_ts", ts)
	params.Set("request_sig", sig)
}

// Login authenticates with an email and password and installs the returned
// session token on the client. The password is transmitted as an MD5
// digest, never in plaintext.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	params := url.Values{}
	params.Set("username", email)
	params.Set("password", hashMD5(password))
	params.Set("extra", "partner")
	params.Set("app_id", c.appID)
	c.sign("user/login", params)

	var resp loginResponse
	if err := c.get(ctx, "user/login", params, &resp); err != nil {
		return "", err
	}

	switch {
	case resp.UserAuthToken != "" && resp.hasParameters():
		c.authToken = resp.UserAuthToken
		c.logger.Info("Logged in", zap.Int64("user_id", resp.User.ID))
		return resp.UserAuthToken, nil
	case !resp.hasParameters():
		return "", &core.AuthError{Reason: "free accounts are not eligible for streaming"}
	default:
		return "", &core.AuthError{Reason: "invalid username/password"}
	}
}

// Search queries the catalog for one media type. Only the first page is
// fetched; results beyond the limit are truncated.
func (c *Client) Search(ctx context.Context, mediaType core.MediaType, query string, limit int) (*SearchResults, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("type", mediaType.String()+"s")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("app_id", c.appID)

	var results SearchResults
	if err := c.get(ctx, "catalog/search", params, &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// GetFileURL resolves the stream URL for a track at the given format id.
// This endpoint requires a signed request and a session token.
func (c *Client) GetFileURL(ctx context.Context, trackID string, formatID int) (*FileURL, error) {
	params := url.Values{}
	params.Set("track_id", trackID)
	params.Set("format_id", strconv.Itoa(formatID))
	params.Set("intent", "stream")
	params.Set("sample", "false")
	params.Set("app_id", c.appID)
	params.Set("user_auth_token", c.authToken)
	c.sign("track/getFileUrl", params)

	var file FileURL
	if err := c.get(ctx, "track/getFileUrl", params, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

func (c *Client) GetTrack(ctx context.Context, trackID string) (*Track, error) {
	params := url.Values{}
	params.Set("track_id", trackID)
	params.Set("app_id", c.appID)

	var track Track
	if err := c.get(ctx, "track/get", params, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

func (c *Client) GetAlbum(ctx context.Context, albumID string) (*Album, error) {
	params := url.Values{}
	params.Set("album_id", albumID)
	params.Set("app_id", c.appID)
	params.Set("extra", "albumsFromSameArtist,focusAll")

	var album Album
	if err := c.get(ctx, "album/get", params, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// GetPlaylist fetches a playlist with its tracks inlined. The limit covers
// one generously sized page; longer playlists are truncated.
func (c *Client) GetPlaylist(ctx context.Context, playlistID string) (*Playlist, error) {
	params := url.Values{}
	params.Set("playlist_id", playlistID)
	params.Set("app_id", c.appID)
	params.Set("limit", "2000")
	params.Set("offset", "0")
	params.Set("extra", "tracks,subscribers,focusAll")

	var playlist Playlist
	if err := c.get(ctx, "playlist/get", params, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

func (c *Client) GetArtist(ctx context.Context, artistID string) (*Artist, error) {
	params := url.Values{}
	params.Set("artist_id", artistID)
	params.Set("app_id", c.appID)
	params.Set("extra", "albums,playlists,tracks_appears_on,albums_with_last_release,focusAll")
	params.Set("limit", "1000")
	params.Set("offset", "0")

	var artist Artist
	if err := c.get(ctx, "artist/get", params, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

func (c *Client) GetLabel(ctx context.Context, labelID string) (*Label, error) {
	params := url.Values{}
	params.Set("label_id", labelID)
	params.Set("app_id", c.appID)
	params.Set("extra", "albums,focusAll")
	params.Set("limit", "1000")
	params.Set("offset", "0")

	var label Label
	if err := c.get(ctx, "label/get", params, &label); err != nil {
		return nil, err
	}
	return &label, nil
}
