package e2etest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	neturl "net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// unsafeCookieJar stores cookies marked Secure even though the test server speaks plain HTTP.
type unsafeCookieJar struct {
	*cookiejar.Jar
}

func newUnsafeCookieJar() (*unsafeCookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("new cookie jar: %w", err)
	}
	return &unsafeCookieJar{Jar: jar}, nil
}

func (j *unsafeCookieJar) SetCookies(u *neturl.URL, cookies []*http.Cookie) {
	for _, c := range cookies {
		c.Secure = false
	}
	j.Jar.SetCookies(u, cookies)
}

// Client talks to the server like a browser with cookies enabled.
type Client struct {
	client *http.Client
	url    string
}

// NewClient creates a client for the server at url.
func NewClient(url string) (*Client, error) {
	jar, err := newUnsafeCookieJar()
	if err != nil {
		return nil, fmt.Errorf("create unsafe cookie jar: %w", err)
	}
	return &Client{
		client: &http.Client{Jar: jar},
		url:    url,
	}, nil
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil); err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		if resp, err = c.client.Do(req); err == nil {
			if err = resp.Body.Close(); err != nil {
				return fmt.Errorf("close response body: %w", err)
			}
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Get fetches a URL and returns the response.
func (c *Client) Get(ctx context.Context, urlPath string) (*http.Response, error) {
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	if req, err = c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil); err != nil {
		return nil, fmt.Errorf("create request with context: %w", err)
	}
	if resp, err = c.client.Do(req); err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

// GetDoc fetches a URL and returns a goquery document.
func (c *Client) GetDoc(ctx context.Context, urlPath string) (*goquery.Document, error) {
	resp, err := c.Get(ctx, urlPath)
	if err != nil {
		return nil, fmt.Errorf("client get: %w", err)
	}
	return documentFromResponse(resp)
}

// PostForm posts url encoded values to urlPath. Redirects are followed.
func (c *Client) PostForm(ctx context.Context, urlPath string, values neturl.Values) (*http.Response, error) {
	req, err := c.newRequestWithContext(ctx, http.MethodPost, urlPath, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("new request with context: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var resp *http.Response
	if resp, err = c.client.Do(req); err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

// SubmitForm submits a form in the doc identified with action formActionUrlPath and returns the response document.
//
// Hidden inputs of the form are sent as they are. formFields maps label text to value, the input or select is
// looked up by its label.
func (c *Client) SubmitForm(
	ctx context.Context,
	doc *goquery.Document,
	formActionURLPath string,
	formFields map[string]string,
) (*goquery.Document, error) {
	form, err := FindForm(doc, formActionURLPath)
	if err != nil {
		return nil, fmt.Errorf("find form: %w", err)
	}

	formData := neturl.Values{}
	form.Find("input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
		if name, ok := input.Attr("name"); ok {
			formData.Add(name, input.AttrOr("value", ""))
		}
	})

	for labelText, value := range formFields {
		var field *goquery.Selection
		if field, err = FindInputForLabel(form, labelText); err != nil {
			if field, err = FindSelectForLabel(form, labelText); err != nil {
				return nil, fmt.Errorf("find field for label: %w", err)
			}
		}

		name, exists := field.Attr("name")
		if !exists {
			return nil, fmt.Errorf("field has no name attribute (label: %s, form_action: %s)",
				labelText, formActionURLPath)
		}
		formData.Set(name, value)
	}

	resp, err := c.PostForm(ctx, formActionURLPath, formData)
	if err != nil {
		return nil, err
	}
	return documentFromResponse(resp)
}

func documentFromResponse(resp *http.Response) (*goquery.Document, error) {
	defer func() {
		_ = resp.Body.Close()
	}()
	if http.StatusOK != resp.StatusCode {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("create document from reader: %w", err)
	}
	doc.Url = resp.Request.URL
	return doc, nil
}

// newRequestWithContext creates a new HTTP request to the server that respects the given context.
func (c *Client) newRequestWithContext(
	ctx context.Context,
	method, urlPath string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}
