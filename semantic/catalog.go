// Package semantic classifies fields by meaning. It runs two orthogonal,
// composable analyses: name-based category scoring against a fixed catalog,
// and statistical profiling of a field's observed values. Neither replaces
// the other; both land on the FieldSchema.
package semantic

import "regexp"

// Category is one entry in the semantic catalog. A keyword occurring as a
// substring of the lower-cased field name scores keywordWeight; a pattern
// match scores patternWeight.
type Category struct {
	Name         string
	SemanticType string
	Keywords     []string
	Patterns     []*regexp.Regexp
}

const (
	keywordWeight = 10
	patternWeight = 5

	// A score of 20 (two keyword hits, or one keyword plus two patterns)
	// saturates confidence at 1.0.
	confidenceScale = 20.0
)

func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		out[i] = regexp.MustCompile(expr)
	}
	return out
}

// DefaultCatalog returns the built-in semantic category catalog. Declaration
// order does not affect results: score ties are broken lexicographically by
// category name, so the catalog behaves as a set.
func DefaultCatalog() []Category {
	return []Category{
		// Financial & monetary
		{
			Name:         "monetary",
			SemanticType: "financial",
			Keywords:     []string{"price", "cost", "amount", "salary", "fee", "rate", "charge", "total", "subtotal", "tax", "discount", "revenue", "budget", "payment", "invoice", "bill"},
			Patterns:     patterns(`\$`, `price`, `cost`, `amount`, `usd`, `eur`, `payment`),
		},
		{
			Name:         "financial_account",
			SemanticType: "financial",
			Keywords:     []string{"account", "iban", "swift", "routing", "bank", "credit", "debit"},
			Patterns:     patterns(`account`, `iban`, `swift`, `bank`),
		},

		// Identity & authentication
		{
			Name:         "identifier",
			SemanticType: "identity",
			Keywords:     []string{"id", "identifier", "uuid", "key", "code", "reference", "number", "serial", "sku"},
			Patterns:     patterns(`^id$`, `_id$`, `uuid`, `code`, `sku`),
		},
		{
			Name:         "authentication",
			SemanticType: "security",
			Keywords:     []string{"password", "token", "secret", "hash", "salt", "api_key", "auth"},
			Patterns:     patterns(`password`, `token`, `secret`, `auth`, `key`),
		},
		{
			Name:         "session",
			SemanticType: "security",
			Keywords:     []string{"session", "cookie", "jwt", "bearer", "oauth"},
			Patterns:     patterns(`session`, `cookie`, `jwt`, `oauth`),
		},

		// Personal information
		{
			Name:         "personal_name",
			SemanticType: "personal_info",
			Keywords:     []string{"name", "firstname", "lastname", "fullname", "username", "author", "person", "display_name"},
			Patterns:     patterns(`name`, `user`, `author`),
		},
		{
			Name:         "age_demographic",
			SemanticType: "personal_info",
			Keywords:     []string{"age", "birthdate", "dob", "birthday", "born"},
			Patterns:     patterns(`age`, `birth`, `dob`),
		},
		{
			Name:         "gender",
			SemanticType: "personal_info",
			Keywords:     []string{"gender", "sex", "pronoun"},
			Patterns:     patterns(`gender`, `sex`),
		},

		// Contact information
		{
			Name:         "contact",
			SemanticType: "contact_info",
			Keywords:     []string{"email", "phone", "mobile", "tel", "contact", "fax", "cell"},
			Patterns:     patterns(`email`, `phone`, `mobile`, `contact`, `@`),
		},
		{
			Name:         "social_media",
			SemanticType: "contact_info",
			Keywords:     []string{"twitter", "facebook", "linkedin", "instagram", "social", "handle"},
			Patterns:     patterns(`twitter`, `facebook`, `social`, `@`),
		},

		// Temporal
		{
			Name:         "temporal",
			SemanticType: "temporal",
			Keywords:     []string{"date", "time", "timestamp", "created", "updated", "modified", "year", "month", "day", "scheduled"},
			Patterns:     patterns(`date`, `time`, `timestamp`, `_at$`, `_on$`, `when`),
		},
		{
			Name:         "duration",
			SemanticType: "temporal",
			Keywords:     []string{"duration", "period", "interval", "elapsed", "length", "timeout"},
			Patterns:     patterns(`duration`, `period`, `interval`, `elapsed`),
		},

		// Geographic
		{
			Name:         "location",
			SemanticType: "geographic",
			Keywords:     []string{"address", "city", "state", "country", "zip", "postal", "location", "region", "province"},
			Patterns:     patterns(`address`, `city`, `country`, `location`, `zip`),
		},
		{
			Name:         "coordinates",
			SemanticType: "geographic",
			Keywords:     []string{"latitude", "longitude", "lat", "lng", "lon", "coord", "geo"},
			Patterns:     patterns(`lat`, `lng`, `lon`, `coord`, `geo`),
		},

		// Measurement & metrics
		{
			Name:         "rating",
			SemanticType: "measurement",
			Keywords:     []string{"rating", "score", "rank", "stars", "review", "feedback", "grade"},
			Patterns:     patterns(`rating`, `score`, `rank`, `stars`),
		},
		{
			Name:         "quantity",
			SemanticType: "measurement",
			Keywords:     []string{"quantity", "count", "number", "total", "amount", "volume", "size", "stock", "inventory"},
			Patterns:     patterns(`qty`, `quantity`, `count`, `num`, `stock`),
		},
		{
			Name:         "percentage",
			SemanticType: "measurement",
			Keywords:     []string{"percentage", "percent", "ratio", "rate", "proportion"},
			Patterns:     patterns(`percent`, `%`, `ratio`, `rate`),
		},
		{
			Name:         "weight_mass",
			SemanticType: "measurement",
			Keywords:     []string{"weight", "mass", "kg", "lb", "gram", "ounce"},
			Patterns:     patterns(`weight`, `mass`, `kg`, `lb`, `gram`),
		},
		{
			Name:         "temperature",
			SemanticType: "measurement",
			Keywords:     []string{"temperature", "temp", "celsius", "fahrenheit", "kelvin"},
			Patterns:     patterns(`temp`, `celsius`, `fahrenheit`),
		},

		// Text & content
		{
			Name:         "description",
			SemanticType: "textual",
			Keywords:     []string{"description", "details", "info", "summary", "text", "content", "notes", "bio", "about"},
			Patterns:     patterns(`desc`, `description`, `details`, `text`, `bio`),
		},
		{
			Name:         "title_heading",
			SemanticType: "textual",
			Keywords:     []string{"title", "heading", "headline", "subject", "topic"},
			Patterns:     patterns(`title`, `heading`, `headline`, `subject`),
		},
		{
			Name:         "comment_message",
			SemanticType: "textual",
			Keywords:     []string{"comment", "message", "post", "reply", "chat", "note"},
			Patterns:     patterns(`comment`, `message`, `post`, `chat`),
		},

		// Media & references
		{
			Name:         "url",
			SemanticType: "reference",
			Keywords:     []string{"url", "link", "website", "uri", "href", "endpoint"},
			Patterns:     patterns(`url`, `link`, `website`, `http`, `href`),
		},
		{
			Name:         "file_path",
			SemanticType: "reference",
			Keywords:     []string{"file", "path", "filename", "directory", "folder", "attachment"},
			Patterns:     patterns(`file`, `path`, `filename`, `\.`),
		},
		{
			Name:         "image_media",
			SemanticType: "media",
			Keywords:     []string{"image", "photo", "picture", "avatar", "thumbnail", "icon", "logo"},
			Patterns:     patterns(`image`, `photo`, `picture`, `avatar`, `img`),
		},
		{
			Name:         "video_audio",
			SemanticType: "media",
			Keywords:     []string{"video", "audio", "media", "mp4", "mp3", "stream"},
			Patterns:     patterns(`video`, `audio`, `media`, `mp4`, `mp3`),
		},

		// Status & state
		{
			Name:         "status",
			SemanticType: "categorical",
			Keywords:     []string{"status", "state", "condition", "flag", "active", "enabled", "live", "published"},
			Patterns:     patterns(`status`, `state`, `is_`, `has_`, `enabled`),
		},
		{
			Name:         "priority",
			SemanticType: "categorical",
			Keywords:     []string{"priority", "importance", "urgency", "severity", "level"},
			Patterns:     patterns(`priority`, `importance`, `urgency`, `severity`),
		},

		// Classification
		{
			Name:         "category",
			SemanticType: "categorical",
			Keywords:     []string{"category", "type", "kind", "class", "group", "tag", "genre", "department"},
			Patterns:     patterns(`category`, `type`, `kind`, `class`, `dept`),
		},
		{
			Name:         "tag_label",
			SemanticType: "categorical",
			Keywords:     []string{"tag", "label", "badge", "keyword", "hashtag"},
			Patterns:     patterns(`tag`, `label`, `badge`, `#`),
		},

		// Health & medical
		{
			Name:         "medical",
			SemanticType: "medical",
			Keywords:     []string{"diagnosis", "symptom", "disease", "condition", "medication", "prescription", "patient"},
			Patterns:     patterns(`medical`, `diagnosis`, `patient`, `symptom`),
		},
		{
			Name:         "health_metric",
			SemanticType: "medical",
			Keywords:     []string{"blood_pressure", "heart_rate", "glucose", "bmi", "pulse"},
			Patterns:     patterns(`blood`, `heart`, `pulse`, `bmi`),
		},

		// Education
		{
			Name:         "academic",
			SemanticType: "education",
			Keywords:     []string{"grade", "course", "subject", "degree", "major", "gpa", "student", "teacher"},
			Patterns:     patterns(`grade`, `course`, `degree`, `gpa`, `student`),
		},

		// Business & commerce
		{
			Name:         "product",
			SemanticType: "commerce",
			Keywords:     []string{"product", "item", "goods", "merchandise", "sku", "model"},
			Patterns:     patterns(`product`, `item`, `sku`, `model`),
		},
		{
			Name:         "company",
			SemanticType: "business",
			Keywords:     []string{"company", "organization", "business", "enterprise", "firm", "corporation"},
			Patterns:     patterns(`company`, `org`, `business`, `corp`),
		},

		// Technical & system
		{
			Name:         "ip_network",
			SemanticType: "technical",
			Keywords:     []string{"ip", "ipaddress", "hostname", "domain", "server", "port"},
			Patterns:     patterns(`ip`, `host`, `server`, `port`, `\d+\.\d+\.\d+`),
		},
		{
			Name:         "version",
			SemanticType: "technical",
			Keywords:     []string{"version", "release", "build", "revision"},
			Patterns:     patterns(`version`, `v\d+`, `release`, `build`),
		},
		{
			Name:         "error_log",
			SemanticType: "technical",
			Keywords:     []string{"error", "exception", "warning", "log", "debug", "trace"},
			Patterns:     patterns(`error`, `exception`, `warning`, `log`),
		},
	}
}
