// Package feed はマーケットの新着出品をRSS 2.0で配信する。
package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"golang.org/x/net/html"

	"github.com/newleaf/newleaf/internal/model"
)

// ContentType はRSS応答のContent-Type。
const ContentType = "application/rss+xml; charset=utf-8"

// descriptionLimit はRSSアイテムの説明文の最大文字数。
const descriptionLimit = 300

// Builder は出品一覧からRSS文書を生成する。
type Builder struct {
	baseURL string
	now     func() time.Time
}

// NewBuilder はBuilderを生成する。baseURLは出品ページへのリンクの基点。
func NewBuilder(baseURL string) *Builder {
	return &Builder{baseURL: strings.TrimSuffix(baseURL, "/"), now: time.Now}
}

// Build は出品一覧をRSS 2.0文書に変換する。アイテムのGUIDは出品ページのURL。
func (b *Builder) Build(listings []*model.Listing) ([]byte, error) {
	now := b.now().UTC()
	f := &feeds.Feed{
		Title:       "New Leaf Marketplace",
		Link:        &feeds.Link{Href: b.baseURL + "/listings"},
		Description: "New Leafのマーケットに新しく出品されたアイテムとサービス",
		Created:     now,
		Updated:     now,
		Items:       make([]*feeds.Item, 0, len(listings)),
	}
	for _, l := range listings {
		link := fmt.Sprintf("%s/listings/%s", b.baseURL, l.ID)
		f.Items = append(f.Items, &feeds.Item{
			Title:       l.Name,
			Link:        &feeds.Link{Href: link},
			Id:          link,
			Description: itemDescription(l),
			Created:     l.CreatedAt.UTC(),
		})
	}

	rss := (&feeds.Rss{Feed: f}).RssFeed()
	rss.Language = "en-gb"
	rss.LastBuildDate = now.Format(time.RFC1123Z)
	rss.PubDate = rss.LastBuildDate
	for i, item := range rss.Items {
		item.Category = listings[i].Category
		item.PubDate = listings[i].CreatedAt.UTC().Format(time.RFC1123Z)
	}

	out, err := feeds.ToXML(rss)
	if err != nil {
		return nil, fmt.Errorf("RSSの生成に失敗しました: %w", err)
	}
	return []byte(out), nil
}

func itemDescription(l *model.Listing) string {
	text := truncate(PlainText(l.Description), descriptionLimit)
	price := "無料"
	if !l.IsFree() {
		price = fmt.Sprintf("%.2fポイント", l.Price)
	}
	if text == "" {
		return price
	}
	return fmt.Sprintf("%s (%s)", text, price)
}

// PlainText はHTML断片からテキストのみを取り出し、空白を1つにまとめる。
func PlainText(fragment string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	var sb strings.Builder
	skip := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "p", "br", "li":
				sb.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			sb.WriteByte(' ')
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if (string(name) == "script" || string(name) == "style") && skip > 0 {
				skip--
			}
			sb.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				sb.Write(tokenizer.Text())
			}
		}
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
