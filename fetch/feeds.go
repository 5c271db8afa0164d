package fetch

// DefaultRSSFeeds are the feeds tracked when no explicit list is
// configured. A mix of high-frequency news and lower-frequency
// official research blogs.
var DefaultRSSFeeds = []string{
	// High frequency news
	"https://techcrunch.com/category/artificial-intelligence/feed/",
	"https://www.theverge.com/rss/artificial-intelligence/index.xml",
	"https://www.wired.com/feed/category/ai/latest/rss",
	"https://venturebeat.com/category/ai/feed/",
	"https://www.technologyreview.com/topic/artificial-intelligence/feed",

	// Official research blogs
	"https://openai.com/blog/rss.xml",
	"https://www.anthropic.com/index.xml",
	"https://deepmind.google/blog/rss.xml",
	"https://aws.amazon.com/blogs/machine-learning/feed/",
}

// DefaultSubreddits are the subreddit .rss feeds tracked by default.
var DefaultSubreddits = []string{
	"https://www.reddit.com/r/MachineLearning/.rss",
	"https://www.reddit.com/r/LocalLLaMA/.rss",
}
