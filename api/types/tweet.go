package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Tweet is the normalized record this service emits. It is the external data
// contract: every field is uniform regardless of which schema variant the
// scraper produced the raw item in.
type Tweet struct {
	TweetID      string     `json:"tweet_id"`
	AuthorHandle string     `json:"author_handle"`
	AuthorName   string     `json:"author_name"`
	Text         string     `json:"text"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	RetweetCount int        `json:"retweet_count"`
	LikeCount    int        `json:"like_count"`
	ReplyCount   int        `json:"reply_count"`
	QuoteCount   int        `json:"quote_count"`
	ViewCount    int        `json:"view_count"`
}

// Engagement is the sum of all interaction counters except views.
func (t *Tweet) Engagement() int {
	return t.RetweetCount + t.LikeCount + t.ReplyCount + t.QuoteCount
}

// URL builds the x.com permalink for the tweet. Without a tweet ID it points
// at the author's profile.
func (t *Tweet) URL() string {
	handle := strings.TrimPrefix(t.AuthorHandle, "@")
	if t.TweetID != "" {
		return fmt.Sprintf("https://x.com/%s/status/%s", handle, t.TweetID)
	}
	return fmt.Sprintf("https://x.com/%s", handle)
}

// FlexString is a string field the scraper emits either as a JSON string or
// as a number. Numbers are stringified; null decodes to the empty string.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	// Snowflake IDs exceed 2^53, so numbers must never pass through float64.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch val := v.(type) {
	case nil:
		*s = ""
	case string:
		*s = FlexString(val)
	case json.Number:
		*s = FlexString(val.String())
	default:
		*s = FlexString(fmt.Sprintf("%v", val))
	}
	return nil
}

// FlexCount is an engagement counter the scraper emits either as a JSON
// number or as a numeric string. Null decodes to zero; anything that cannot
// coerce to an integer is a decode error, which fails the enclosing item.
type FlexCount int

func (n *FlexCount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) {
			return fmt.Errorf("cannot coerce counter value %q to an integer", s)
		}
		v = int(f)
	}
	*n = FlexCount(v)
	return nil
}

// author is the nested author mapping newer scraper versions emit.
type author struct {
	UserName FlexString `json:"userName"`
	Name     FlexString `json:"name"`
}

// TimelineItem is one raw tweet as returned by the list-timeline actor. Key
// names vary across actor versions, so every logical field carries its alias
// chain and Normalize resolves them in priority order.
type TimelineItem struct {
	ID           *FlexString     `json:"id"`
	TweetID      *FlexString     `json:"tweetId"`
	Author       json.RawMessage `json:"author"`
	AuthorHandle *FlexString     `json:"authorHandle"`
	AuthorName   *FlexString     `json:"authorName"`
	Text         *string         `json:"text"`
	FullText     *string         `json:"full_text"`
	CreatedAt    string          `json:"createdAt"`
	CreatedAtAlt string          `json:"created_at"`
	Retweets     *FlexCount      `json:"retweetCount"`
	Likes        *FlexCount      `json:"likeCount"`
	Favorites    *FlexCount      `json:"favoriteCount"`
	Replies      *FlexCount      `json:"replyCount"`
	Quotes       *FlexCount      `json:"quoteCount"`
	Views        *FlexCount      `json:"viewCount"`
}

// Normalize maps the raw item into the uniform record. Missing optional
// fields fall through to defaults and never produce an error; only malformed
// shapes (rejected earlier, during unmarshalling) fail an item.
func (i *TimelineItem) Normalize() *Tweet {
	t := &Tweet{
		TweetID:      coalesce(i.ID, i.TweetID),
		Text:         coalesceStr(i.Text, i.FullText),
		RetweetCount: count(i.Retweets),
		LikeCount:    count(i.Likes, i.Favorites),
		ReplyCount:   count(i.Replies),
		QuoteCount:   count(i.Quotes),
		ViewCount:    count(i.Views),
	}

	// A nested author object wins over the flat fields. A null or scalar
	// author falls through to them.
	var a author
	if isJSONObject(i.Author) && json.Unmarshal(i.Author, &a) == nil {
		t.AuthorHandle = string(a.UserName)
		t.AuthorName = string(a.Name)
	} else {
		t.AuthorHandle = coalesce(i.AuthorHandle)
		t.AuthorName = coalesce(i.AuthorName)
	}

	raw := i.CreatedAt
	if raw == "" {
		raw = i.CreatedAtAlt
	}
	t.CreatedAt = ParseTweetTime(raw)

	return t
}

// Timestamp layouts seen across actor versions, tried in order. RFC3339
// already treats a trailing Z as +00:00.
var tweetTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.RubyDate,
}

// ParseTweetTime parses an ISO-8601-ish timestamp into UTC. An empty or
// unparsable value yields nil, which means "unknown" rather than an error.
func ParseTweetTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range tweetTimeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			utc := ts.UTC()
			return &utc
		}
	}
	return nil
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "{")
}

func coalesce(candidates ...*FlexString) string {
	for _, c := range candidates {
		if c != nil {
			return string(*c)
		}
	}
	return ""
}

func coalesceStr(candidates ...*string) string {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return ""
}

func count(candidates ...*FlexCount) int {
	for _, c := range candidates {
		if c != nil {
			return int(*c)
		}
	}
	return 0
}
