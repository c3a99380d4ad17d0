package models

import "strings"

// Sentiment is the label attached to a feed item.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// DecodeSentiment maps a backend label to a Sentiment, defaulting to neutral.
func DecodeSentiment(raw string) Sentiment {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "positive":
		return SentimentPositive
	case "negative":
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// FeedItem is one news article in the feed panel.
type FeedItem struct {
	Title          string
	URL            string
	BodyText       string
	SentimentLabel Sentiment
	SentimentScore float64
	Source         string
	PublishedAt    string
	Entities       []string
	GeoTags        []string
	AssetClasses   []string
}

// FeedCategories lists the categories the backend filters on.
var FeedCategories = []string{"all", "finance", "geopolitical", "tech", "world"}

// IsFeedCategory reports whether c is a known feed category.
func IsFeedCategory(c string) bool {
	for _, k := range FeedCategories {
		if k == c {
			return true
		}
	}
	return false
}
