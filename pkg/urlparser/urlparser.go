package urlparser

import "regexp"

// Category of a recognized URL.
type Category string

const (
	CategoryYouTube   Category = "youtube"
	CategoryFacebook  Category = "facebook"
	CategoryInstagram Category = "instagram"
	CategoryThreads   Category = "threads"
	CategoryWeb       Category = "web"
	CategoryNone      Category = ""
)

// Parsed is the classification result for a single URL.
type Parsed struct {
	Category Category
	URL      string
}

var categoryPatterns = []struct {
	category Category
	patterns []*regexp.Regexp
}{
	{CategoryYouTube, []*regexp.Regexp{
		regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/watch\?v=[a-zA-Z0-9_-]+`),
		regexp.MustCompile(`(?:https?://)?(?:www\.)?youtu\.be/[a-zA-Z0-9_-]+`),
		regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/shorts/[a-zA-Z0-9_-]+`),
		regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/embed/[a-zA-Z0-9_-]+`),
	}},
	{CategoryFacebook, []*regexp.Regexp{
		regexp.MustCompile(`(?:https?://)?(?:www\.)?facebook\.com/[^/]+/(?:posts|videos|photos)/\S+`),
		regexp.MustCompile(`(?:https?://)?(?:www\.)?facebook\.com/(?:watch|reel|share)\S*`),
		regexp.MustCompile(`(?:https?://)?(?:www\.)?fb\.watch/\S+`),
		regexp.MustCompile(`(?:https?://)?(?:www\.)?fb\.com/\S+`),
		regexp.MustCompile(`(?:https?://)?(?:m\.)?facebook\.com/story\.php\S+`),
	}},
	{CategoryInstagram, []*regexp.Regexp{
		regexp.MustCompile(`(?:https?://)?(?:www\.)?instagram\.com/p/[a-zA-Z0-9_-]+`),
		regexp.MustCompile(`(?:https?://)?(?:www\.)?instagram\.com/reel/[a-zA-Z0-9_-]+`),
		regexp.MustCompile(`(?:https?://)?(?:www\.)?instagram\.com/tv/[a-zA-Z0-9_-]+`),
	}},
	{CategoryThreads, []*regexp.Regexp{
		regexp.MustCompile(`(?:https?://)?(?:www\.)?threads\.(?:net|com)/@?[\w.]+/post/[a-zA-Z0-9_-]+`),
	}},
}

var (
	httpURLPattern  = regexp.MustCompile(`(?i)^https?://.+`)
	urlExtractRegex = regexp.MustCompile(`(?i)https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)
	trailingPunct   = regexp.MustCompile(`[.,;:!?'")\]]+$`)
)

// Parse classifies a single URL. Recognized hosts map to their platform
// category; other valid HTTP(S) URLs are generic web pages; anything else
// returns nil.
func Parse(url string) *Parsed {
	if url == "" {
		return nil
	}

	for _, entry := range categoryPatterns {
		for _, pattern := range entry.patterns {
			if pattern.MatchString(url) {
				return &Parsed{Category: entry.category, URL: url}
			}
		}
	}

	if httpURLPattern.MatchString(url) {
		return &Parsed{Category: CategoryWeb, URL: url}
	}

	return nil
}

// ExtractURLs returns every URL in the text, in first-occurrence order,
// duplicates preserved, with trailing punctuation trimmed.
func ExtractURLs(text string) []string {
	if text == "" {
		return nil
	}

	matches := urlExtractRegex.FindAllString(text, -1)
	urls := make([]string, 0, len(matches))
	for _, url := range matches {
		urls = append(urls, trailingPunct.ReplaceAllString(url, ""))
	}
	return urls
}

// IsSocialMedia reports whether the URL belongs to a platform we scrape
// through a dedicated fetcher instead of the generic web scraper.
func IsSocialMedia(url string) bool {
	parsed := Parse(url)
	if parsed == nil {
		return false
	}
	switch parsed.Category {
	case CategoryYouTube, CategoryFacebook, CategoryInstagram, CategoryThreads:
		return true
	}
	return false
}

// DisplayName is the human-readable platform label used in embeds.
func DisplayName(category Category) string {
	switch category {
	case CategoryYouTube:
		return "YouTube"
	case CategoryFacebook:
		return "Facebook"
	case CategoryInstagram:
		return "Instagram"
	case CategoryThreads:
		return "Threads"
	case CategoryWeb:
		return "網路文章"
	default:
		return string(category)
	}
}

// NotionType maps a category onto the select value used by the Notion
// info database.
func NotionType(category Category) string {
	switch category {
	case CategoryYouTube:
		return "YT"
	case CategoryFacebook:
		return "FB"
	case CategoryInstagram:
		return "IG"
	case CategoryThreads:
		return "TH"
	default:
		return "網路文章"
	}
}
