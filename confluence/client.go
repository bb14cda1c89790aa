// Package confluence publishes rendered diagrams and comparison notes
// as Confluence pages in storage format, wrapping PlantUML source in the
// plantuml structured macro so the wiki renders the diagram server-side.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds the Confluence connection settings.
type Config struct {
	BaseURL      string // e.g. https://your-domain.atlassian.net/wiki
	SpaceKey     string
	ParentPageID string // optional; nests created pages under a parent
	Username     string
	APIToken     string
}

// Page is the response for a created page.
type Page struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Links struct {
		WebUI string `json:"webui"`
		Base  string `json:"base"`
	} `json:"_links"`
}

// URL returns the absolute web link to the page, when the API provided one.
func (p *Page) URL() string {
	if p.Links.Base == "" || p.Links.WebUI == "" {
		return ""
	}
	return p.Links.Base + p.Links.WebUI
}

// Client talks to the Confluence REST API.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient returns a client for the configured Confluence instance.
func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// BuildMacro wraps PlantUML source in the plantuml structured macro,
// preceded by an intro paragraph. The CDATA section keeps the diagram
// source out of the XML parser's way.
func BuildMacro(plantUML, introHTML string) string {
	if introHTML == "" {
		introHTML = "<p>Auto-generated graph.</p>"
	}
	return fmt.Sprintf(`%s
<ac:structured-macro ac:name="plantuml">
  <ac:plain-text-body><![CDATA[
%s
  ]]></ac:plain-text-body>
</ac:structured-macro>
`, introHTML, plantUML)
}

type createPageRequest struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Space     spaceRef  `json:"space"`
	Body      pageBody  `json:"body"`
	Ancestors []pageRef `json:"ancestors,omitempty"`
}

type spaceRef struct {
	Key string `json:"key"`
}

type pageRef struct {
	ID string `json:"id"`
}

type pageBody struct {
	Storage storageBody `json:"storage"`
}

type storageBody struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

// PublishPage creates a page with the given storage-format body.
func (c *Client) PublishPage(ctx context.Context, title, storageHTML string) (*Page, error) {
	reqBody := createPageRequest{
		Type:  "page",
		Title: title,
		Space: spaceRef{Key: c.cfg.SpaceKey},
		Body: pageBody{
			Storage: storageBody{
				Value:          storageHTML,
				Representation: "storage",
			},
		},
	}
	if c.cfg.ParentPageID != "" {
		reqBody.Ancestors = []pageRef{{ID: c.cfg.ParentPageID}}
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := c.cfg.BaseURL + "/rest/api/content"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.Username, c.cfg.APIToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("confluence request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading confluence response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("confluence error %d: %s", resp.StatusCode, string(respBody))
	}

	var page Page
	if err := json.Unmarshal(respBody, &page); err != nil {
		return nil, fmt.Errorf("decoding confluence response: %w", err)
	}
	return &page, nil
}

// PublishDiagram builds the plantuml macro page and publishes it.
func (c *Client) PublishDiagram(ctx context.Context, title, plantUML, introHTML string) (*Page, error) {
	return c.PublishPage(ctx, title, BuildMacro(plantUML, introHTML))
}
