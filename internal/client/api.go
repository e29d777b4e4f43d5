// Package client implements the command-line client of the catalog API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/atinyakov/herbcatalog/internal/models"
)

const (
	apiToken    = "/token"
	apiProducts = "/products/"
	apiReclaim  = "/admin/reclaim"
)

// APIError is a non-2xx response of the server.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server responded %d", e.Status)
	}
	return fmt.Sprintf("server responded %d: %s", e.Status, e.Detail)
}

// ProductInput is what the user enters for a new or edited product.
type ProductInput struct {
	Name     string
	Category string
	Price    float64
	// FilePath is an optional local image to upload.
	FilePath string
}

// Client calls the catalog API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	// FS is used to read files to upload.
	FS afero.Fs
}

// New returns a Client for baseURL reading uploads from the OS filesystem.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    httpClient,
		FS:      afero.NewOsFs(),
	}
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := c.newRequest(ctx, http.MethodPost, apiToken, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	c.Token = resp.AccessToken
	return resp.AccessToken, nil
}

// List fetches one page of products. params holds the query parameters
// (keyword, category, min_price, max_price, sort_by, sort_order, page, limit).
func (c *Client) List(ctx context.Context, params url.Values) (*models.Page, error) {
	path := apiProducts
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var page models.Page
	if err := c.do(req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get fetches a single product.
func (c *Client) Get(ctx context.Context, id int64) (*models.Product, error) {
	req, err := c.newRequest(ctx, http.MethodGet, productPath(id), nil)
	if err != nil {
		return nil, err
	}
	var p models.Product
	if err := c.do(req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create adds a product.
func (c *Client) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	return c.sendProduct(ctx, http.MethodPost, apiProducts, in)
}

// Update overwrites a product; the image is replaced only when in.FilePath is set.
func (c *Client) Update(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	return c.sendProduct(ctx, http.MethodPut, productPath(id), in)
}

// Delete removes a product.
func (c *Client) Delete(ctx context.Context, id int64) error {
	req, err := c.newRequest(ctx, http.MethodDelete, productPath(id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Reclaim triggers an orphan sweep and returns the deleted file names.
func (c *Client) Reclaim(ctx context.Context) ([]string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, apiReclaim, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Deleted []string `json:"deleted"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Deleted, nil
}

func (c *Client) sendProduct(ctx context.Context, method, path string, in ProductInput) (*models.Product, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	_ = mw.WriteField("name", in.Name)
	_ = mw.WriteField("category", in.Category)
	_ = mw.WriteField("price", strconv.FormatFloat(in.Price, 'f', -1, 64))

	if in.FilePath != "" {
		data, err := afero.ReadFile(c.FS, in.FilePath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", in.FilePath, err)
		}
		fw, err := mw.CreateFormFile("file", filepath.Base(in.FilePath))
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var p models.Product
	if err := c.do(req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var body struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			apiErr.Detail = body.Detail
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func productPath(id int64) string {
	return apiProducts + strconv.FormatInt(id, 10)
}
