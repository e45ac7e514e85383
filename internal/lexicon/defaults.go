package lexicon

var defaultPain = []string{
	// Time-consuming tasks
	"manual", "manual process", "manually", "hand", "by hand",
	"time consuming", "takes too long", "too much time", "waste time",
	"hours", "every day", "daily", "repetitive", "tedious", "boring",

	// Problems and frustrations
	"problem", "issue", "struggle", "difficult", "hard", "challenging",
	"frustrated", "annoying", "pain", "headache", "nightmare",
	"overwhelmed", "burnout", "stressed", "tired",

	// Inefficiency
	"inefficient", "slow", "error", "mistake", "wrong", "broken",
	"doesn't work", "not working", "failed", "failure",
	"complicated", "complex", "confusing", "unclear",

	// Scaling
	"can't scale", "scaling", "growing", "hiring", "outsource",
	"need help", "need someone", "need automation", "need tool",
	"expensive", "cost", "budget", "money", "afford",

	// E-commerce tasks
	"inventory", "stock", "products", "upload", "listing",
	"orders", "shipping", "fulfillment", "customer service",
	"pricing", "competitors", "analytics", "reports", "data",
	"email", "marketing", "ads", "social media", "content",
}

var defaultUrgency = []string{
	"urgent", "asap", "immediately", "right now", "can't wait",
	"desperate", "critical", "emergency", "need help now",
}

var defaultBudget = []string{
	"budget", "money", "cost", "expensive", "cheap", "afford",
	"price", "pricing", "dollar", "$", "pay", "paid", "hire",
	"outsource", "freelancer", "agency",
}

// defaultCategories is ordered: earlier categories win confidence ties
var defaultCategories = []Category{
	{Name: "operational", Keywords: Terms{
		"inventory", "stock", "products", "upload", "listing", "orders",
		"shipping", "fulfillment", "manual", "repetitive", "daily tasks",
	}},
	{Name: "analytical", Keywords: Terms{
		"analytics", "reports", "data", "tracking", "metrics", "insights",
		"performance", "roi", "conversion", "sales data",
	}},
	{Name: "communication", Keywords: Terms{
		"customer service", "email", "support", "communication", "response",
		"follow up", "notifications", "alerts",
	}},
	{Name: "technical", Keywords: Terms{
		"integration", "api", "technical", "coding", "development", "setup",
		"configuration", "maintenance", "updates", "bugs",
	}},
	{Name: "marketing", Keywords: Terms{
		"marketing", "ads", "social media", "content", "promotion", "seo",
		"traffic", "conversion", "branding", "campaigns",
	}},
	{Name: "financial", Keywords: Terms{
		"pricing", "competitors", "cost", "budget", "expensive", "money",
		"profit", "revenue", "margins", "pricing strategy",
	}},
}

// Default returns the built-in e-commerce lexicon
func Default() *Lexicon {
	l, err := New(defaultPain, defaultUrgency, defaultBudget, defaultCategories)
	if err != nil {
		// The built-in lists are static; failing here is a programming error
		panic("lexicon: invalid defaults: " + err.Error())
	}
	return l
}
