// Package newsletter holds the static registry of feeds users can subscribe
// to, and the public endpoint listing them.
package newsletter

import (
	"github.com/gin-gonic/gin"
	"github.com/starboard-analytics/news-core/internal/pkg/response"
)

// Newsletter describes one feed and its display metadata. The registry is
// immutable and loaded at process start.
type Newsletter struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
	Language    string `json:"language"`
	ReportType  string `json:"-"` // maps to the reports table "type" column
	AccentColor string `json:"-"`
}

var registry = []Newsletter{
	{
		ID:          "minor_news",
		Name:        "Minor News",
		Description: "Daily crypto & energy infrastructure news digest",
		Emoji:       "⚡",
		Language:    "en",
		ReportType:  "minor_news",
		AccentColor: "#F59E0B", // amber, energy theme
	},
	{
		ID:          "into_crypto_cn",
		Name:        "Into Crypto",
		Description: "每日加密货币深度分析",
		Emoji:       "🪙",
		Language:    "zh",
		ReportType:  "into_crypto_cn",
		AccentColor: "#4B8BFF", // brand blue, crypto theme
	},
	{
		ID:          "into_crypto_en",
		Name:        "Into Crypto",
		Description: "Daily crypto analysis and insights",
		Emoji:       "🪙",
		Language:    "en",
		ReportType:  "into_crypto_en",
		AccentColor: "#4B8BFF", // brand blue, crypto theme
	},
}

// All returns every registered newsletter.
func All() []Newsletter {
	out := make([]Newsletter, len(registry))
	copy(out, registry)
	return out
}

// Get looks up a newsletter by feed id.
func Get(feedID string) (Newsletter, bool) {
	for _, n := range registry {
		if n.ID == feedID {
			return n, true
		}
	}
	return Newsletter{}, false
}

// IsValid reports whether the feed id is registered.
func IsValid(feedID string) bool {
	_, ok := Get(feedID)
	return ok
}

// ValidFeedIDs returns the ids of all registered feeds.
func ValidFeedIDs() []string {
	ids := make([]string, 0, len(registry))
	for _, n := range registry {
		ids = append(ids, n.ID)
	}
	return ids
}

// ReportType maps a feed id to its reports-table type key. Unknown feeds map
// to themselves so report lookups fail loudly downstream instead of here.
func ReportType(feedID string) string {
	if n, ok := Get(feedID); ok {
		return n.ReportType
	}
	return feedID
}

// RegisterRoutes mounts the public newsletter listing.
func RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/newsletters", list)
}

// GET /newsletters
func list(c *gin.Context) {
	response.OK(c, gin.H{"newsletters": All()})
}
