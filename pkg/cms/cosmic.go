package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// CosmicClient talks to the Cosmic REST API. Reads use the bucket read key as
// a query parameter, writes send the write key as a bearer token.
type CosmicClient struct {
	http       *http.Client
	apiURL     string
	workersURL string
	bucket     string
	readKey    string
	writeKey   string
	relations  Relations
}

type CosmicOption func(*CosmicClient)

func WithHTTPClient(c *http.Client) CosmicOption {
	return func(cc *CosmicClient) { cc.http = c }
}

// WithCosmicRelations declares relation fields. The remote API resolves them
// itself; the declaration lets the cache decorator know about them.
func WithCosmicRelations(r Relations) CosmicOption {
	return func(cc *CosmicClient) { cc.relations = r }
}

func NewCosmicClient(cfg Config, opts ...CosmicOption) (*CosmicClient, error) {
	if cfg.BucketSlug == "" || cfg.ReadKey == "" {
		return nil, errors.Join(ErrNotConfigured, errors.New("COSMIC_BUCKET_SLUG and COSMIC_READ_KEY are required"))
	}
	c := &CosmicClient{
		http:       &http.Client{Timeout: cfg.Timeout},
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		workersURL: strings.TrimRight(cfg.WorkersURL, "/"),
		bucket:     cfg.BucketSlug,
		readKey:    cfg.ReadKey,
		writeKey:   cfg.WriteKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type objectsResponse struct {
	Objects []Object `json:"objects"`
	Total   int      `json:"total"`
}

type objectResponse struct {
	Object Object `json:"object"`
}

func (c *CosmicClient) Find(ctx context.Context, q Query) ([]Object, int, error) {
	if err := q.validate(); err != nil {
		return nil, 0, err
	}

	params, err := c.queryParams(q)
	if err != nil {
		return nil, 0, err
	}

	var resp objectsResponse
	err = c.do(ctx, http.MethodGet, c.bucketURL("objects")+"?"+params.Encode(), "", nil, &resp)
	if isNotFound(err) {
		// The API answers 404 when nothing matches.
		return []Object{}, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	if resp.Objects == nil {
		resp.Objects = []Object{}
	}
	return resp.Objects, resp.Total, nil
}

func (c *CosmicClient) FindOne(ctx context.Context, q Query) (*Object, error) {
	if q.ID == "" {
		q.Limit = 1
		objs, _, err := c.Find(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(objs) == 0 {
			return nil, ErrNotFound
		}
		return &objs[0], nil
	}

	params, err := c.queryParams(q)
	if err != nil {
		return nil, err
	}

	var resp objectResponse
	if err := c.do(ctx, http.MethodGet, c.bucketURL("objects", q.ID)+"?"+params.Encode(), "", nil, &resp); err != nil {
		return nil, err
	}
	if q.Type != "" && resp.Object.Type != "" && resp.Object.Type != q.Type {
		return nil, ErrNotFound
	}
	return &resp.Object, nil
}

func (c *CosmicClient) InsertOne(ctx context.Context, in InsertInput) (*Object, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = StatusPublished
	}

	var resp objectResponse
	if err := c.write(ctx, http.MethodPost, c.bucketURL("objects"), in, &resp); err != nil {
		return nil, err
	}
	return &resp.Object, nil
}

func (c *CosmicClient) UpdateOne(ctx context.Context, id string, in UpdateInput) (*Object, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, ErrInvalidInput
	}

	var resp objectResponse
	if err := c.write(ctx, http.MethodPatch, c.bucketURL("objects", id), in, &resp); err != nil {
		return nil, err
	}
	return &resp.Object, nil
}

func (c *CosmicClient) DeleteOne(ctx context.Context, id string) error {
	return c.write(ctx, http.MethodDelete, c.bucketURL("objects", id), nil, nil)
}

// Ping issues the cheapest possible read.
func (c *CosmicClient) Ping(ctx context.Context) error {
	params := url.Values{"read_key": {c.readKey}, "limit": {"1"}, "props": {"id"}}
	err := c.do(ctx, http.MethodGet, c.bucketURL("objects")+"?"+params.Encode(), "", nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}

// Relations returns the relation declaration the client was built with.
func (c *CosmicClient) Relations() Relations { return c.relations }

func (c *CosmicClient) queryParams(q Query) (url.Values, error) {
	params := url.Values{"read_key": {c.readKey}}

	if q.ID == "" {
		filter := make(map[string]any, len(q.Filter)+1)
		for k, v := range q.Filter {
			if items, ok := asSlice(v); ok {
				v = map[string]any{"$in": items}
			}
			filter[k] = v
		}
		if q.Type != "" {
			filter["type"] = q.Type
		}
		raw, err := json.Marshal(filter)
		if err != nil {
			return nil, errors.Join(ErrInvalidQuery, err)
		}
		params.Set("query", string(raw))
	}
	if len(q.Props) > 0 {
		params.Set("props", strings.Join(q.Props, ","))
	}
	if q.Depth > 0 {
		params.Set("depth", strconv.Itoa(q.Depth))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Skip > 0 {
		params.Set("skip", strconv.Itoa(q.Skip))
	}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	return params, nil
}

func (c *CosmicClient) bucketURL(parts ...string) string {
	return c.apiURL + "/buckets/" + url.PathEscape(c.bucket) + "/" + joinEscaped(parts)
}

func (c *CosmicClient) workersBucketURL(parts ...string) string {
	return c.workersURL + "/buckets/" + url.PathEscape(c.bucket) + "/" + joinEscaped(parts)
}

func joinEscaped(parts []string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return strings.Join(escaped, "/")
}

func (c *CosmicClient) write(ctx context.Context, method, endpoint string, body, out any) error {
	if c.writeKey == "" {
		return errors.Join(ErrNotConfigured, errors.New("COSMIC_WRITE_KEY is required for writes"))
	}
	var r io.Reader
	contentType := ""
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Join(ErrInvalidInput, err)
		}
		r = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.doAuth(ctx, method, endpoint, contentType, r, out, true)
}

func (c *CosmicClient) do(ctx context.Context, method, endpoint, contentType string, body io.Reader, out any) error {
	return c.doAuth(ctx, method, endpoint, contentType, body, out, false)
}

func (c *CosmicClient) doAuth(ctx context.Context, method, endpoint, contentType string, body io.Reader, out any, auth bool) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.writeKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Join(ErrRequestFailed, &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)})
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Join(ErrRequestFailed, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
