package database

// DateLayout is the storage format of post timestamps. Identity keys use the
// same layout so stored and freshly crawled dates compare as strings.
const DateLayout = "2006-01-02 15:04:05"

// UnknownDate stands in for a missing post date inside identity keys.
const UnknownDate = "Unknown"

// Analysis metadata recorded with every result.
const (
	AnalysisModel   = "keyword_based"
	AnalysisVersion = "1.0"
)

// NewPost is a crawled listing row ready to be stored.
type NewPost struct {
	Date     *string // DateLayout, nil when the listing date could not be parsed
	Title    string
	Author   string
	Views    string
	Likes    string
	Dislikes string
	Link     string
}

// Post represents a stored board post.
type Post struct {
	ID         int64
	StockCode  string
	Date       *string
	Title      string
	Author     string
	Views      string
	Likes      string
	Dislikes   string
	Link       string
	Content    string
	IsAnalyzed bool
	CreatedAt  *string
}

// PostKey is the stored identity of a post. Title is empty unless
// titles were requested.
type PostKey struct {
	Date   string
	Author string
	Title  string
}

// Analysis holds the classifier output for a post.
type Analysis struct {
	PostID          int64
	SentimentScore  float64
	SentimentLabel  string // "positive", "negative" or "neutral"
	ConfidenceScore float64
	Keywords        []string
	Stance          string // "bullish", "bearish" or "neutral"
	RiskLevel       string // "low", "medium" or "high"
	Model           string
	Version         string
	CreatedAt       *string
	UpdatedAt       *string
}

// PostWithAnalysis pairs a post with its analysis, if any.
type PostWithAnalysis struct {
	Post
	Analysis *Analysis
}

// WindowPost is an analyzed post inside a report window.
type WindowPost struct {
	PostID          int64
	Date            string
	Title           string
	SentimentScore  float64
	SentimentLabel  string
	ConfidenceScore float64
	Stance          string
	RiskLevel       string
}

// DaySummary aggregates analyzed posts for one calendar day.
type DaySummary struct {
	Day           string
	Total         int
	Positive      int
	Negative      int
	Neutral       int
	Bullish       int
	Bearish       int
	AvgSentiment  float64
	AvgConfidence float64
}

// KeywordCount is a keyword with the number of posts it was matched in.
type KeywordCount struct {
	Keyword string
	Count   int
}

// ReportRun records a generated report file.
type ReportRun struct {
	ID          int64
	StockCode   string
	ReportType  string
	TargetDate  string
	FileName    string
	WindowStart string
	WindowEnd   string
	TotalPosts  int
	GeneratedAt *string
}

// Stats contains aggregate database statistics for one stock.
type Stats struct {
	TotalPosts      int
	AnalyzedPosts   int
	PendingPosts    int
	ExcludedPosts   int
	AnalysisRecords int
	ReportRuns      int
	FirstPostDate   *string
	LastPostDate    *string
}
