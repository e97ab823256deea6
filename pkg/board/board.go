// Package board scrapes the ppomppu relay board listing.
package board

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/10spoon/ppomppurelaymonitor/internal/utils"
	"github.com/10spoon/ppomppurelaymonitor/pkg/scrapelog"
	"github.com/10spoon/ppomppurelaymonitor/pkg/whttp"
)

const DefaultURL = "https://www.ppomppu.co.kr/zboard/zboard.php?id=relay"

type Fetcher struct {
	URL    string
	Client *retryablehttp.Client
}

func NewFetcher(url string) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	return &Fetcher{URL: url, Client: whttp.NewClient()}
}

// Fetch downloads the board page and extracts the current post rows.
// Rows that cannot be parsed are skipped, never fatal.
func (f *Fetcher) Fetch() ([]scrapelog.Post, error) {
	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method:  "GET",
		URL:     f.URL,
		Charset: "euc-kr",
	}, f.Client)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("board fetch failed with HTTP %d", res.StatusCode)
	}

	utils.Log.Debugf("fetched board page %q (%d chars)", res.HTTPTitle, res.ResponseLength)
	return ParseListing(res.BodyString)
}

// ParseListing pulls posts out of the board listing HTML. Only rows with the
// baseList class are real posts; pinned notices use a different class.
func ParseListing(body string) ([]scrapelog.Post, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing board HTML: %w", err)
	}

	var posts []scrapelog.Post
	doc.Find("tr.baseList").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a[href*='view.php']").First()
		if link.Length() == 0 {
			return
		}

		title := strings.TrimSpace(link.Text())
		if title == "" {
			return
		}

		href, _ := link.Attr("href")
		posts = append(posts, scrapelog.Post{
			ID:        postIDFromHref(href),
			Title:     title,
			Author:    authorFromRow(row),
			Timestamp: timestampFromRow(row),
		})
	})

	return posts, nil
}

// postIDFromHref extracts the board's post number from the no= query param.
func postIDFromHref(href string) string {
	idx := strings.Index(href, "no=")
	if idx == -1 {
		return ""
	}
	id := href[idx+len("no="):]
	if amp := strings.Index(id, "&"); amp != -1 {
		id = id[:amp]
	}
	return id
}

func authorFromRow(row *goquery.Selection) string {
	var author string
	row.Find("td").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		if cell.Find("span.list_name").Length() > 0 {
			author = strings.TrimSpace(cell.Text())
			return false
		}
		return true
	})
	return author
}

// timestampFromRow finds the cell holding either an HH:MM time or an MM/DD
// date. The board shows times for today's posts and dates for older ones.
func timestampFromRow(row *goquery.Selection) string {
	var ts string
	row.Find("td").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		text := strings.TrimSpace(cell.Text())
		if utf8.RuneCountInString(text) > 10 {
			return true
		}
		if strings.Contains(text, ":") || strings.Contains(text, "/") {
			ts = text
			return false
		}
		return true
	})
	return ts
}
