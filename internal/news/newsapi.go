package news

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/geobrief/geobrief/config"
)

// Article is a single news article normalized from a raw search result.
// Articles are immutable once built by the client.
type Article struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Description string    `json:"description"`
}

// Searcher is the contract the retrieval stage depends on.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Article, error)
}

// NewsAPIClient implements Searcher using the newsapi.org everything endpoint,
// restricted to the configured reputable-domain allow-list.
type NewsAPIClient struct {
	cfg  config.NewsAPIConfig
	http *HTTPClient
	now  func() time.Time
}

func NewNewsAPIClient(cfg config.NewsAPIConfig) *NewsAPIClient {
	return &NewsAPIClient{
		cfg:  cfg,
		http: NewHTTPClient(cfg.Timeout, 2, 300*time.Millisecond),
		now:  time.Now,
	}
}

type newsAPIResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Search queries the news index for English articles from the allow-listed
// domains, published between two days ago and yesterday, sorted by relevance.
// Results missing a title or content body are dropped.
func (n *NewsAPIClient) Search(ctx context.Context, query string) ([]Article, error) {
	if n.cfg.APIKey == "" {
		return nil, fmt.Errorf("NEWSAPI_API_KEY not configured")
	}

	endpoint := n.cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://newsapi.org/v2/everything"
	}

	pageSize := n.cfg.MaxArticles
	if pageSize <= 0 || pageSize > 5 {
		pageSize = 5
	}

	from := n.now().AddDate(0, 0, -2).Format("2006-01-02")
	to := n.now().AddDate(0, 0, -1).Format("2006-01-02")

	params := url.Values{}
	params.Set("q", query)
	params.Set("domains", strings.Join(n.cfg.ReputableSources, ","))
	params.Set("from", from)
	params.Set("to", to)
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("language", "en")

	headers := map[string]string{"X-Api-Key": n.cfg.APIKey}

	var resp newsAPIResponse
	if err := n.http.DoJSON(ctx, "GET", endpoint+"?"+params.Encode(), headers, nil, &resp); err != nil {
		return nil, fmt.Errorf("newsapi request failed: %w", err)
	}
	if resp.Status != "ok" {
		msg := resp.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("newsapi returned error: %s", msg)
	}

	var out []Article
	for _, a := range resp.Articles {
		if a.Title == "" || a.Content == "" {
			continue
		}
		ts, _ := time.Parse(time.RFC3339, a.PublishedAt)
		out = append(out, Article{
			Title:       a.Title,
			Content:     a.Content,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: ts,
			Description: a.Description,
		})
	}
	return out, nil
}
