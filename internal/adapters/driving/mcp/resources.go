package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for pagechat resources.
	uriScheme = "pagechat://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "pages",
		Name:        "pages",
		Description: "Keys of every page with a stored conversation",
		MIMEType:    "application/json",
	}, s.handlePagesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "history/{pageUrl}",
		Name:        "page-history",
		Description: "Stored conversation of a page; pageUrl is the URL-escaped page address",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

func (s *Server) handlePagesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	keys, err := s.ports.Chat.Pages(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	if keys == nil {
		keys = []string{}
	}
	return jsonResource(req.Params.URI, keys)
}

func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	pageURL := extractPageURL(req.Params.URI)
	if pageURL == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	h, err := s.ports.Chat.History(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return jsonResource(req.Params.URI, historyOutput(h))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractPageURL extracts the page URL from pagechat://history/{pageUrl}.
func extractPageURL(uri string) string {
	const prefix = uriScheme + "history/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	escaped := strings.TrimPrefix(uri, prefix)
	if escaped == "" {
		return ""
	}
	pageURL, err := url.PathUnescape(escaped)
	if err != nil {
		return ""
	}
	return pageURL
}
