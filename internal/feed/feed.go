// Package feed reads the school news RSS feed.
package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"powerapi-backend/internal/components/assert"
	"powerapi-backend/internal/components/telemetry"
	"powerapi-backend/lib/xmltree"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const report_feed_fetch = "feed.fetch"

const DefaultUrl = "http://inside.isb.ac.th/pn/feed/"

// Article is a single item of the feed.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	ImageUrl    string `json:"image_url,omitempty"`
	Date        string `json:"date"`
}

var dateLayouts = []string{time.RFC1123Z, time.RFC1123}

// Published parses the article's pubDate.
func (a Article) Published() (time.Time, bool) {
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, a.Date)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// firstImage returns the src of the first <img> in an html fragment.
func firstImage(fragment string) string {
	if !strings.Contains(fragment, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return strings.TrimSpace(src)
}

// ParseArticles reads every item of an RSS document.
func ParseArticles(data []byte) ([]Article, error) {
	doc, err := xmltree.ParseDocument(data)
	if err != nil {
		return nil, err
	}
	channel := doc.Root().Child("channel")
	if channel.IsError() {
		return nil, fmt.Errorf("not an rss feed: %w", channel.Err())
	}

	items := channel.Child("item").All()
	articles := make([]Article, len(items))
	for i, item := range items {
		description := item.Child("description").StringValue()
		articles[i] = Article{
			Title:       item.Child("title").StringValue(),
			Description: description,
			Link:        item.Child("link").StringValue(),
			ImageUrl:    firstImage(description),
			Date:        item.Child("pubDate").StringValue(),
		}
	}
	return articles, nil
}

type Client struct {
	http *resty.Client
	tel  telemetry.API
}

func NewClient(tel telemetry.API) Client {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("feed", tel)

	httpClient := resty.New()
	httpClient.SetTimeout(time.Second * 30)
	httpClient.SetHeader("Accept", "application/rss+xml, application/xml;q=0.9, */*;q=0.8")
	telemetry.InstrumentResty(httpClient, tel)

	return Client{
		http: httpClient,
		tel:  tel,
	}
}

// Fetch downloads and parses the feed at url.
func (c Client) Fetch(ctx context.Context, url string) ([]Article, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetch feed: %s", res.Status())
	}

	articles, err := ParseArticles(res.Body())
	if err != nil {
		c.tel.ReportBroken(report_feed_fetch, err, url)
		return nil, err
	}
	c.tel.ReportCount(report_feed_fetch, int64(len(articles)))
	return articles, nil
}
