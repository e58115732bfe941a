package mockdata

import "github.com/pageza/issuedesk/backend/internal/models"

var defaultUsers = []string{
	"Alice Johnson",
	"Bob Smith",
	"Carol Martinez",
	"David Chen",
	"Emma Wilson",
	"Frank Okafor",
	"Grace Lee",
}

var titlePool = map[models.Category][]string{
	models.CategoryContent: {
		"Update product descriptions for the spring catalog",
		"Blog post needs new hero image",
		"Typo in the onboarding email",
		"Translate the pricing page into Spanish",
		"Refresh social media banner",
	},
	models.CategoryTechnical: {
		"Login page times out on mobile",
		"Checkout button unresponsive in Safari",
		"Dashboard charts fail to load",
		"Password reset email never arrives",
		"File upload stalls at 99%",
	},
	models.CategoryGeneral: {
		"Request for additional team licenses",
		"Question about the billing cycle",
		"Office Wi-Fi access for visitors",
		"Feedback on the new support portal",
		"Schedule training for new hires",
	},
}

var descriptionPool = map[models.Category][]string{
	models.CategoryContent: {
		"The current copy is out of date and no longer matches the product.",
		"Marketing asked for this before the next campaign goes live.",
		"Several customers pointed this out in recent feedback.",
	},
	models.CategoryTechnical: {
		"Reproducible for multiple users since the last deployment.",
		"Happens intermittently, mostly during peak hours.",
		"Blocking a customer from completing their order.",
	},
	models.CategoryGeneral: {
		"Looking for guidance on the right process here.",
		"Not urgent, but would be great to sort out this month.",
		"Raised during the last all-hands meeting.",
	},
}

var tagPool = map[models.Category][]string{
	models.CategoryContent:   {"copy", "design", "seo", "localization", "marketing"},
	models.CategoryTechnical: {"bug", "frontend", "backend", "mobile", "performance", "auth"},
	models.CategoryGeneral:   {"billing", "it", "hr", "feedback", "request"},
}

var (
	contentTypes      = []string{"blog post", "product page", "email", "social media", "video"}
	platforms         = []string{"website", "instagram", "newsletter", "youtube", "linkedin"}
	audiences         = []string{"customers", "partners", "internal", "prospects"}
	systemTypes       = []string{"web app", "mobile app", "api", "database", "email service"}
	browsers          = []string{"Chrome 126", "Firefox 127", "Safari 17", "Edge 125"}
	errorMessages     = []string{"Request timed out", "500 Internal Server Error", "TypeError: undefined is not a function", "Connection refused"}
	generalCategories = []string{"question", "request", "feedback", "other"}
	departments       = []string{"Marketing", "Engineering", "Sales", "HR", "Finance"}
	urgencies         = []string{"low", "normal", "high"}
)

var supportResponses = []string{
	"Thanks for the details. We're looking into this now.",
	"Could you share a screenshot of what you're seeing?",
	"We've reproduced the problem and a fix is in progress.",
	"This has been escalated to the responsible team.",
	"We've deployed an update. Can you check if it's resolved?",
	"Thanks for your patience while we investigate.",
}

var userFollowUps = []string{
	"Thanks, let me know if you need anything else.",
	"I've attached more information.",
	"It's still happening on my side.",
	"That seems to have fixed it, thank you!",
	"Any update on this?",
}
