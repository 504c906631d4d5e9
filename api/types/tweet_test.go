package types_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/newsradar/tweet-collector/api/types"
)

var _ = Describe("TimelineItem", func() {
	Context("Unmarshalling JSON", func() {
		It("should decode the current actor schema", func() {
			jsonData := `{
				"id": "12345",
				"author": {"userName": "sama", "name": "Sam Altman"},
				"text": "This is a test tweet with enough characters to pass filter.",
				"createdAt": "2024-01-01T00:00:00Z",
				"retweetCount": 100,
				"likeCount": 500,
				"replyCount": 20,
				"quoteCount": 10,
				"viewCount": 50000
			}`
			var item types.TimelineItem
			err := json.Unmarshal([]byte(jsonData), &item)
			Expect(err).NotTo(HaveOccurred())

			tweet := item.Normalize()
			Expect(tweet.TweetID).To(Equal("12345"))
			Expect(tweet.AuthorHandle).To(Equal("sama"))
			Expect(tweet.AuthorName).To(Equal("Sam Altman"))
			Expect(tweet.LikeCount).To(Equal(500))
			Expect(tweet.Engagement()).To(Equal(630))
			Expect(tweet.CreatedAt).NotTo(BeNil())
			Expect(*tweet.CreatedAt).To(BeTemporally("==", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
		})

		It("should decode the flat legacy schema", func() {
			jsonData := `{
				"tweetId": 67890,
				"authorHandle": "test",
				"authorName": "Test User",
				"full_text": "Minimal tweet data but long enough to pass.",
				"created_at": "2024-01-01T12:00:00+02:00"
			}`
			var item types.TimelineItem
			err := json.Unmarshal([]byte(jsonData), &item)
			Expect(err).NotTo(HaveOccurred())

			tweet := item.Normalize()
			Expect(tweet.TweetID).To(Equal("67890"))
			Expect(tweet.AuthorHandle).To(Equal("test"))
			Expect(tweet.Text).To(Equal("Minimal tweet data but long enough to pass."))
			Expect(tweet.LikeCount).To(Equal(0))
			Expect(*tweet.CreatedAt).To(BeTemporally("==", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))
		})

		It("should keep a numeric snowflake ID exact", func() {
			jsonData := `{"id": 1867531278701948928, "text": "x"}`
			var item types.TimelineItem
			Expect(json.Unmarshal([]byte(jsonData), &item)).To(Succeed())

			tweet := item.Normalize()
			Expect(tweet.TweetID).To(Equal("1867531278701948928"))
			Expect(tweet.URL()).To(HaveSuffix("/status/1867531278701948928"))
		})

		It("should fall back to favoriteCount when likeCount is absent", func() {
			jsonData := `{"id": "1", "text": "x", "favoriteCount": 42}`
			var item types.TimelineItem
			Expect(json.Unmarshal([]byte(jsonData), &item)).To(Succeed())
			Expect(item.Normalize().LikeCount).To(Equal(42))
		})

		It("should prefer likeCount over favoriteCount when both are present", func() {
			jsonData := `{"id": "1", "text": "x", "likeCount": 7, "favoriteCount": 42}`
			var item types.TimelineItem
			Expect(json.Unmarshal([]byte(jsonData), &item)).To(Succeed())
			Expect(item.Normalize().LikeCount).To(Equal(7))
		})

		It("should accept counters sent as numeric strings", func() {
			jsonData := `{"id": "1", "text": "x", "retweetCount": "33"}`
			var item types.TimelineItem
			Expect(json.Unmarshal([]byte(jsonData), &item)).To(Succeed())
			Expect(item.Normalize().RetweetCount).To(Equal(33))
		})

		It("should reject counters that cannot coerce to an integer", func() {
			jsonData := `{"id": "1", "text": "x", "retweetCount": "lots"}`
			var item types.TimelineItem
			err := json.Unmarshal([]byte(jsonData), &item)
			Expect(err).To(HaveOccurred())
		})

		It("should treat a missing timestamp as unknown", func() {
			jsonData := `{"id": "1", "text": "no date on this one"}`
			var item types.TimelineItem
			Expect(json.Unmarshal([]byte(jsonData), &item)).To(Succeed())
			Expect(item.Normalize().CreatedAt).To(BeNil())
		})

		It("should treat an unparsable timestamp as unknown, not an error", func() {
			jsonData := `{"id": "1", "text": "x", "createdAt": "yesterday-ish"}`
			var item types.TimelineItem
			Expect(json.Unmarshal([]byte(jsonData), &item)).To(Succeed())
			Expect(item.Normalize().CreatedAt).To(BeNil())
		})

		It("should use flat author fields when the author object is not a mapping", func() {
			jsonData := `{"id": "1", "author": "not-a-mapping", "authorHandle": "x_handle", "text": "x"}`
			var item types.TimelineItem
			Expect(json.Unmarshal([]byte(jsonData), &item)).To(Succeed())
			Expect(item.Normalize().AuthorHandle).To(Equal("x_handle"))
		})
	})
})

var _ = Describe("Tweet", func() {
	Describe("URL", func() {
		It("should build a status permalink", func() {
			t := &types.Tweet{TweetID: "42", AuthorHandle: "@sama"}
			Expect(t.URL()).To(Equal("https://x.com/sama/status/42"))
		})

		It("should point at the profile without a tweet ID", func() {
			t := &types.Tweet{AuthorHandle: "sama"}
			Expect(t.URL()).To(Equal("https://x.com/sama"))
		})
	})
})

var _ = Describe("ParseTweetTime", func() {
	It("should treat a trailing Z as UTC", func() {
		ts := types.ParseTweetTime("2024-01-01T00:00:00Z")
		Expect(ts).NotTo(BeNil())
		Expect(*ts).To(BeTemporally("==", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	})

	It("should accept a naive timestamp as UTC", func() {
		ts := types.ParseTweetTime("2024-06-30T08:15:00")
		Expect(ts).NotTo(BeNil())
		Expect(*ts).To(BeTemporally("==", time.Date(2024, 6, 30, 8, 15, 0, 0, time.UTC)))
	})

	It("should return nil for garbage", func() {
		Expect(types.ParseTweetTime("not a time")).To(BeNil())
	})
})
