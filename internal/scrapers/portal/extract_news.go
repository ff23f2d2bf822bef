package portal

import (
	"fmt"
	"portalsync/internal/model"
	"portalsync/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const page_news = "news"

func extractNewsItem(ctx ExtractContext, item *goquery.Selection) (model.NewsItem, error) {
	anchor := item.Find("a.news-title").First()
	if anchor.Length() == 0 {
		return model.NewsItem{}, fmt.Errorf("no title link")
	}
	id := anchor.AttrOr("data-news-id", "")
	if id == "" {
		return model.NewsItem{}, fmt.Errorf("title link has no news id")
	}

	result := model.NewsItem{
		Id:          id,
		SecondaryId: anchor.AttrOr("data-secondary-id", ""),
		Title:       htmlutil.Text(anchor),
		Category:    htmlutil.Text(item.Find("span.news-category")),
		Domain:      htmlutil.Text(item.Find("span.news-domain")),
		PublishedAt: htmlutil.Text(item.Find("span.news-date")),
		Tag:         htmlutil.Text(item.Find("span.news-tag")),
		// read state is tracked locally, the list does not expose it
		Unread: true,
	}
	if link, ok := htmlutil.ResolveHref(ctx.BaseUrl, anchor); ok {
		result.Url = link.String()
	}
	return result, nil
}

// ExtractNews reads the news list, an empty list is not an error but a page
// without the list is.
func ExtractNews(html string, ctx ExtractContext) ([]model.NewsItem, error) {
	ctx.validate()

	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	list := doc.Find("ul.news-list")
	if list.Length() == 0 {
		return nil, pageError(page_news, "no news list")
	}

	var news []model.NewsItem
	list.Find("li.news-item").Each(func(i int, item *goquery.Selection) {
		result, err := extractNewsItem(ctx, item)
		if err != nil {
			ctx.skipRow(page_news, i, err.Error())
			return
		}
		news = append(news, result)
	})
	return news, nil
}
