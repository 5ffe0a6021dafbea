package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"mdm-migrate/internal/validate"
)

const userAgent = "mdm-migrate/1.0"

// Client is a REST client for one form-platform instance. It implements
// the pipeline's BundleStore and the validator's Probe.
type Client struct {
	inst     Instance
	password string
	httpc    *http.Client
	log      *zap.Logger
}

// NewClient creates a client for an instance. Credentials are resolved
// once, up front, so a missing environment variable fails before any run
// starts.
func NewClient(inst Instance, log *zap.Logger) (*Client, error) {
	password, err := inst.Credentials.ResolvePassword()
	if err != nil {
		return nil, fmt.Errorf("instance %s: %w", inst.Name, err)
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		inst:     inst,
		password: password,
		httpc:    &http.Client{},
		log:      log,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	req.SetBasicAuth(c.inst.Credentials.Username, c.password)
	req.Header.Set("User-Agent", userAgent)

	return req, nil
}

// Fetch exports the application bundle with the given id.
func (c *Client) Fetch(ctx context.Context, ref string) ([]byte, error) {
	url := fmt.Sprintf("%s/web/json/console/app/%s/export", c.inst.BaseURL(), ref)

	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exporting %s from %s: %w", ref, c.inst.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exporting %s from %s: status %d", ref, c.inst.Name, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("exporting %s from %s: %w", ref, c.inst.Name, err)
	}

	c.log.Info("exported bundle", zap.String("appId", ref), zap.Int("bytes", len(data)))

	return data, nil
}

// Store imports a serialized bundle and returns the application id the
// instance assigned to it.
func (c *Client) Store(ctx context.Context, data []byte) (string, error) {
	url := c.inst.BaseURL() + "/web/json/console/app/import"

	req, err := c.newRequest(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("importing bundle to %s: %w", c.inst.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("importing bundle to %s: status %d", c.inst.Name, resp.StatusCode)
	}

	var result struct {
		AppID string `json:"appId"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("importing bundle to %s: %w", c.inst.Name, err)
	}

	c.log.Info("imported bundle", zap.String("appId", result.AppID))

	return result.AppID, nil
}

// Probe checks whether a reference-data collection is served by the
// instance's master-data API. Timeouts come back as StatusTimedOut, all
// other failures as StatusUnreachable.
func (c *Client) Probe(ctx context.Context, collectionID string) validate.ProbeStatus {
	url := fmt.Sprintf("%s/web/json/masterdata/%s/ping", c.inst.BaseURL(), collectionID)

	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return validate.StatusUnreachable
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return validate.StatusTimedOut
		}

		c.log.Debug("probe failed", zap.String("collectionId", collectionID), zap.Error(err))

		return validate.StatusUnreachable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return validate.StatusReachable
	}

	return validate.StatusUnreachable
}

// Health is a connectivity snapshot of one instance.
type Health struct {
	Reachable     bool   `json:"reachable"`
	Authenticated bool   `json:"authenticated"`
	Version       string `json:"version,omitempty"`
	Applications  int    `json:"applications"`
}

// CheckHealth tests connectivity, authentication, and counts published
// applications. Failures degrade the snapshot instead of erroring: a dead
// instance is a result, not an exception.
func (c *Client) CheckHealth(ctx context.Context) Health {
	var h Health

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := c.newRequest(pingCtx, http.MethodGet, c.inst.BaseURL()+"/", nil)
	if err != nil {
		return h
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Debug("connection test failed", zap.Error(err))
		return h
	}

	resp.Body.Close()

	h.Reachable = resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusFound

	if !h.Reachable {
		return h
	}

	apps, err := c.listApplications(ctx)
	if err == nil {
		h.Authenticated = true
		h.Applications = len(apps)
	}

	if info, err := c.systemInfo(ctx); err == nil {
		h.Version = info.Version
	}

	return h
}

type appInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *Client) listApplications(ctx context.Context) ([]appInfo, error) {
	url := c.inst.BaseURL() + "/web/json/apps/published/list"

	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing applications: status %d", resp.StatusCode)
	}

	var result struct {
		Data []appInfo `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return result.Data, nil
}

type systemInfo struct {
	Version string `json:"version"`
}

func (c *Client) systemInfo(ctx context.Context) (systemInfo, error) {
	url := c.inst.BaseURL() + "/web/json/monitoring/info"

	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return systemInfo{}, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return systemInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return systemInfo{}, fmt.Errorf("system info: status %d", resp.StatusCode)
	}

	var info systemInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return systemInfo{}, err
	}

	return info, nil
}
