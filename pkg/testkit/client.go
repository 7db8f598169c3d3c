package testkit

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/farmlink/pkg/response"
)

// Client is an HTTP client that keeps cookies, so a login carries over to
// later requests.
type Client struct {
	t    testing.TB
	base string
	http *http.Client
}

// Response is a decoded farmlink answer.
type Response struct {
	Code     int
	Header   http.Header
	Body     []byte
	Envelope response.Envelope
}

// Data decodes the envelope's data field into dest.
func (r *Response) Data(t testing.TB, dest any) {
	t.Helper()
	raw, err := json.Marshal(r.Envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dest))
}

// File is a multipart file part.
type File struct {
	Field string
	Name  string
	Data  []byte
}

func NewClient(t testing.TB, base string) *Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &Client{t: t, base: strings.TrimRight(base, "/"), http: &http.Client{Jar: jar}}
}

func (c *Client) Get(path string) *Response {
	return c.do(http.MethodGet, path, nil, "")
}

func (c *Client) Delete(path string) *Response {
	return c.do(http.MethodDelete, path, nil, "")
}

// PostJSON sends body encoded as JSON; a nil body sends nothing.
func (c *Client) PostJSON(path string, body any) *Response {
	c.t.Helper()
	if body == nil {
		return c.do(http.MethodPost, path, nil, "application/json")
	}
	raw, err := json.Marshal(body)
	require.NoError(c.t, err)
	return c.do(http.MethodPost, path, bytes.NewReader(raw), "application/json")
}

// PostForm sends an urlencoded form.
func (c *Client) PostForm(path string, values url.Values) *Response {
	return c.do(http.MethodPost, path, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

// PostMultipart sends fields and files as multipart/form-data.
func (c *Client) PostMultipart(path string, fields map[string]string, files ...File) *Response {
	c.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(c.t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		require.NoError(c.t, err)
		_, err = part.Write(f.Data)
		require.NoError(c.t, err)
	}
	require.NoError(c.t, w.Close())
	return c.do(http.MethodPost, path, &buf, w.FormDataContentType())
}

func (c *Client) do(method, path string, body io.Reader, contentType string) *Response {
	c.t.Helper()
	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	out := &Response{Code: resp.StatusCode, Header: resp.Header, Body: raw}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(raw, &out.Envelope), "body: %s", raw)
	}
	return out
}
