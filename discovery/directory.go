package discovery

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/flyerfed/flyer"
	"github.com/pevans/flyerfed/scraper"
)

// ReadShops extracts the shop list from the shop category page. A missing
// list container returns an error wrapping ErrStructure; entries without a
// link are skipped.
func ReadShops(doc *goquery.Document, baseURL *url.URL, sel scraper.DirectorySelectors) ([]flyer.Shop, error) {
	container := doc.Find(sel.Container).First()
	if container.Length() == 0 {
		return nil, fmt.Errorf("%w: shop container %q not found", ErrStructure, sel.Container)
	}

	var shops []flyer.Shop
	container.Find(sel.Entry).Each(func(_ int, entry *goquery.Selection) {
		link := entry.Find(sel.Link).First()
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		shops = append(shops, flyer.Shop{
			Name: strings.TrimSpace(link.Text()),
			URL:  resolve(baseURL, href),
		})
	})

	return shops, nil
}
