package quota

import "github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"

// Search depth multipliers. Unknown depths cost like basic.
var searchDepthMultiplier = map[models.SearchDepth]int{
	models.SearchDepthBasic:    1,
	models.SearchDepthAdvanced: 2,
	models.SearchDepthUltimate: 3,
}

const (
	sitemapCostWithXML    = 1
	sitemapCostWithoutXML = 10
)

// CrawlCost is the credit cost of a single-URL crawl.
func CrawlCost(pageLimit int) int {
	return pageLimit
}

// BatchCrawlCost charges one credit per URL.
func BatchCrawlCost(urlCount int) int {
	return urlCount
}

func SearchCost(resultLimit int, depth models.SearchDepth) int {
	m, ok := searchDepthMultiplier[depth]
	if !ok {
		m = 1
	}
	return resultLimit * m
}

// SitemapCost is higher when the site's sitemap.xml is ignored and the whole
// site must be discovered by crawling.
func SitemapCost(ignoreSitemapXML bool) int {
	if ignoreSitemapXML {
		return sitemapCostWithoutXML
	}
	return sitemapCostWithXML
}
