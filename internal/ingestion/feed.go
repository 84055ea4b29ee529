package ingestion

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// Item — запись внешней сводки до превращения в свидетельство.
type Item struct {
	ID        string
	Source    string
	Title     string
	Summary   string
	Link      string
	Tags      []string
	Published time.Time
}

// Source — внешний источник сводок.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Item, error)
}

// FeedSource читает RSS/Atom ленту.
type FeedSource struct {
	name   string
	url    string
	parser *gofeed.Parser
}

func NewFeedSource(name, url string) *FeedSource {
	return &FeedSource{name: name, url: url, parser: gofeed.NewParser()}
}

func (s *FeedSource) Name() string {
	return s.name
}

func (s *FeedSource) Fetch(ctx context.Context) ([]Item, error) {
	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("ingestion: не удалось получить ленту %s: %w", s.url, err)
	}

	now := time.Now().UTC()
	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		key := entry.GUID
		if key == "" {
			key = entry.Link
		}
		if key == "" {
			key = entry.Title
		}

		published := now
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			published = entry.UpdatedParsed.UTC()
		}

		summary := entry.Description
		if summary == "" {
			summary = entry.Content
		}

		items = append(items, Item{
			ID:        ItemID(s.name, key),
			Source:    s.name,
			Title:     strings.TrimSpace(entry.Title),
			Summary:   plainText(summary),
			Link:      entry.Link,
			Tags:      entry.Categories,
			Published: published,
		})
	}
	return items, nil
}

// ItemID строит стабильный id записи из имени источника и ключа записи.
func ItemID(source, key string) string {
	return fmt.Sprintf("%s_%x", source, sha256.Sum256([]byte(key)))[:len(source)+1+16]
}

// plainText убирает разметку из описания ленты.
func plainText(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return strings.TrimSpace(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
