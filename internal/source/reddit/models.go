package reddit

// Listing is the envelope Reddit wraps every listing response in.
type Listing struct {
	Data ListingData `json:"data"`
}

type ListingData struct {
	After    string  `json:"after"`
	Children []Child `json:"children"`
}

type Child struct {
	Data Link `json:"data"`
}

// Link is one post in a listing.
type Link struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Domain        string  `json:"domain"`
	Subreddit     string  `json:"subreddit_name_prefixed"`
	URL           string  `json:"url"`
	Permalink     string  `json:"permalink"`
	Score         int64   `json:"score"`
	CreatedUTC    float64 `json:"created_utc"`
	CommentsCount int     `json:"num_comments"`
	Stickied      bool    `json:"stickied"`
}
