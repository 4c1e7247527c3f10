package htmlpage

import (
	"context"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.PageDigester = (*Digester)(nil)

// Digester converts fetched pages to markdown.
type Digester struct {
	fetcher *Fetcher
	conv    *converter.Converter
}

// NewDigester creates a digester.
func NewDigester(fetcher *Fetcher) *Digester {
	return &Digester{
		fetcher: fetcher,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Digest fetches pageURL and returns its markdown.
func (d *Digester) Digest(ctx context.Context, pageURL string) (string, error) {
	page, err := d.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	return d.Convert(string(page.Body), page.URL)
}

// Convert turns an HTML document into markdown, with links made absolute.
func (d *Digester) Convert(html, pageURL string) (string, error) {
	md, err := d.conv.ConvertString(html, converter.WithDomain(pageURL))
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	md = strings.TrimSpace(md)
	if md == "" {
		return "", fmt.Errorf("page %s has no readable content", pageURL)
	}
	return md, nil
}
