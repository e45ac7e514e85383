package model

import "time"

// Item is one piece of top-level content (a post) with its replies
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`          // Primary text
	Body  string `json:"body,omitempty"` // Secondary text (optional)

	// Engagement is an optional post-level metric (e.g. upvotes). When nil
	// records extracted from the post keep an engagement score of 0.
	Engagement *float64 `json:"engagement,omitempty"`

	Replies []Reply `json:"replies,omitempty"`

	// Provenance, carried through for persistence only
	Subreddit string    `json:"subreddit,omitempty"`
	URL       string    `json:"url,omitempty"`
	Author    string    `json:"author,omitempty"`
	Created   time.Time `json:"created,omitempty"`
}

// Reply is a comment attached to an item
type Reply struct {
	ID         string    `json:"id"`
	Body       string    `json:"body"`
	Engagement float64   `json:"engagement"` // e.g. comment score
	Author     string    `json:"author,omitempty"`
	Created    time.Time `json:"created,omitempty"`
}

// Text returns the post text analyzed for pain statements
func (i Item) Text() string {
	return i.Title + " " + i.Body
}
