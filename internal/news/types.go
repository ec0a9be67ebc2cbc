package news

// NewsItem is a single normalized article produced by the ingestion
// pipeline and persisted by the storage layer.
type NewsItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content,omitempty"`
	Link        string `json:"link"`
	PubDate     string `json:"pubDate"`
	Source      string `json:"source"`
}

// Article is a NewsItem together with the reader's annotations,
// assembled by the storage layer on read.
type Article struct {
	NewsItem
	Highlights []Highlight `json:"highlights"`
	Comments   []Comment   `json:"comments"`
}

// Highlight is a piece of article text the reader marked, with an
// optional note attached.
type Highlight struct {
	ID        string `json:"id"`
	ArticleID string `json:"articleId"`
	Text      string `json:"text"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// Comment is a reader comment on an article. ArticleTitle is only
// populated by queries that join against the articles table.
type Comment struct {
	ID           string `json:"id"`
	ArticleID    string `json:"articleId"`
	Content      string `json:"content"`
	UserID       string `json:"userId,omitempty"`
	UserName     string `json:"userName"`
	CreatedAt    string `json:"createdAt"`
	ArticleTitle string `json:"articleTitle,omitempty"`
}
