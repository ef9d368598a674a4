package domain

// FallbackImage is stored when no representative image could be scraped.
const FallbackImage = "https://ik.imagekit.io/7whoa8vo6/lepiant/a6a6a6_text=L_27EPIANT_LxvtvPYyB"

// Source is a configured feed endpoint polled for new articles.
type Source struct {
	ID         int64
	CategoryID int64
	ChannelID  int64
	URL        string
	Language   string
	Active     bool
}

// CandidateArticle is a harvested entry that has not been enriched yet.
// Title doubles as the dedup key.
type CandidateArticle struct {
	ChannelID   int64  `json:"channelId"`
	CategoryID  int64  `json:"categoryId"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Published   string `json:"published"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

// EnrichedArticle carries a resolved image URL (scraped or FallbackImage).
type EnrichedArticle = CandidateArticle
