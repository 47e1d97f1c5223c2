package provider

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"flick/internal/media"
)

// parseSearchResults extracts search results from a goquery document.
// DOM parsing only; titles are treated as opaque text.
func parseSearchResults(doc *goquery.Document) []media.SearchResult {
	return parseResultItems(doc.Selection)
}

// parseResultItems walks the standard .film_list-wrap .flw-item card
// structure shared by the flixhq markup family.
func parseResultItems(scope *goquery.Selection) []media.SearchResult {
	var results []media.SearchResult

	scope.Find(".film_list-wrap .flw-item").Each(func(_ int, s *goquery.Selection) {
		result := media.SearchResult{}

		link := s.Find(".film-name a")
		result.Title = strings.TrimSpace(link.Text())
		href, exists := link.Attr("href")
		if exists {
			result.URL = href
			result.ID = extractID(href)
		}

		if strings.Contains(href, "/tv/") {
			result.Type = media.TV
		} else {
			result.Type = media.Movie
		}

		// Year is the lone 4-digit metadata span
		s.Find(".fd-infor span").Each(func(_ int, span *goquery.Selection) {
			text := strings.TrimSpace(span.Text())
			if _, err := strconv.Atoi(text); err == nil && len(text) == 4 {
				result.Year = text
			}
		})

		if result.Title != "" {
			results = append(results, result)
		}
	})

	return results
}

// parseLastPage reads the highest page number from the pagination bar.
// Returns 1 when there is no pagination.
func parseLastPage(doc *goquery.Document) int {
	last := 1
	doc.Find(".pagination li a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		if idx := strings.LastIndex(href, "page="); idx != -1 {
			if n, err := strconv.Atoi(href[idx+len("page="):]); err == nil && n > last {
				last = n
			}
		}
		if n, err := strconv.Atoi(strings.TrimSpace(s.Text())); err == nil && n > last {
			last = n
		}
	})
	return last
}

// parseSeasons extracts season information from a show page.
func parseSeasons(doc *goquery.Document) []media.Season {
	var seasons []media.Season

	doc.Find(".dropdown-menu-model .dropdown-item a, a.dropdown-item").Each(func(_ int, s *goquery.Selection) {
		dataID, _ := s.Attr("data-id")
		title := strings.TrimSpace(s.Text())

		num := 0
		if parts := strings.Fields(title); len(parts) >= 2 {
			num, _ = strconv.Atoi(parts[len(parts)-1])
		}

		if dataID == "" {
			href, ok := s.Attr("href")
			if !ok {
				return
			}
			parts := strings.Split(href, "/")
			if len(parts) > 0 {
				dataID = parts[len(parts)-1]
			}
		}

		if dataID != "" {
			seasons = append(seasons, media.Season{
				Number: num,
				ID:     dataID,
			})
		}
	})

	return seasons
}

// parseEpisodes extracts episode information from a season fragment.
// Episode numbers come from the provider as-is; gaps are passed through.
func parseEpisodes(doc *goquery.Document) []media.Episode {
	var episodes []media.Episode

	doc.Find(".nav-item a, a.eps-item").Each(func(_ int, s *goquery.Selection) {
		dataID, exists := s.Attr("data-id")
		if !exists {
			return
		}

		title := strings.TrimSpace(s.AttrOr("title", ""))
		if title == "" {
			title = strings.TrimSpace(s.Text())
		}

		num := 0
		text := strings.TrimSpace(s.Text())
		if parts := strings.Fields(text); len(parts) >= 2 {
			if n, err := strconv.Atoi(strings.TrimSuffix(parts[1], ":")); err == nil {
				num = n
			} else if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
				num = n
			}
		}

		episodes = append(episodes, media.Episode{
			Number: num,
			Title:  title,
			ID:     dataID,
		})
	})

	return episodes
}

// parseServers extracts mirror server options from a servers fragment.
// Movie endpoints use data-linkid, TV episode endpoints use data-id.
func parseServers(doc *goquery.Document) []media.Server {
	var servers []media.Server

	doc.Find(".link-item, .server-item a, [data-id]").Each(func(_ int, s *goquery.Selection) {
		dataID, exists := s.Attr("data-linkid")
		if !exists {
			dataID, exists = s.Attr("data-id")
		}
		if !exists {
			return
		}

		name := strings.TrimSpace(s.Find("span").Text())
		if name == "" {
			name = strings.TrimSpace(s.Text())
		}
		if name == "" {
			name = s.AttrOr("title", "Unknown")
		}

		servers = append(servers, media.Server{
			Name: name,
			ID:   dataID,
		})
	})

	return servers
}

// extractID extracts the content ID from a URL path.
// e.g., "/movie/free-the-exorcist-hd-75043" -> "movie/free-the-exorcist-hd-75043"
func extractID(urlPath string) string {
	id := strings.TrimPrefix(urlPath, "/")
	if idx := strings.Index(id, "?"); idx != -1 {
		id = id[:idx]
	}
	return id
}

// extractNumericID extracts the trailing numeric ID from a path.
// e.g., "movie/free-the-exorcist-hd-75043" -> "75043"
func extractNumericID(id string) string {
	parts := strings.Split(id, "-")
	if len(parts) > 0 {
		last := parts[len(parts)-1]
		if _, err := strconv.Atoi(last); err == nil {
			return last
		}
	}
	return ""
}

// parseTrendingResults extracts results from the /home page's trending
// tab panels, scoped to #trending-movies or #trending-tv.
func parseTrendingResults(doc *goquery.Document, mediaType media.MediaType) []media.SearchResult {
	var selector string
	switch mediaType {
	case media.Movie:
		selector = "#trending-movies"
	case media.TV:
		selector = "#trending-tv"
	default:
		return parseSearchResults(doc)
	}

	return parseResultItems(doc.Find(selector))
}
