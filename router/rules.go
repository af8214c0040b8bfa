// Package router categorizes batches into a (source, entity) pair and
// resolves the storage domain and retention policy for a source. Detection
// is keyword overlap against fixed rule tables; tie scores resolve
// lexicographically so routing is deterministic across processes.
package router

import "sort"

// Defaults applied when no rule matches.
const (
	DefaultSource        = "uncategorized"
	DefaultEntity        = "data"
	DefaultDomain        = "pipeline_default"
	DefaultRetentionDays = 365
)

// rule pairs a category with the keywords that vote for it.
type rule struct {
	name     string
	keywords []string
}

// sourceRules categorize a batch into a data source. A keyword scores one
// point when it appears as a substring of any field name.
var sourceRules = []rule{
	{"ecommerce", []string{"price", "product", "sku", "cart", "order", "checkout", "inventory", "shipping"}},
	{"hr", []string{"employee", "salary", "department", "hire_date", "job_title", "manager", "payroll"}},
	{"api_logs", []string{"endpoint", "status_code", "response_time", "method", "api_key", "request_id"}},
	{"iot_sensors", []string{"temperature", "humidity", "sensor_id", "device_id", "reading", "timestamp"}},
	{"web_scraping", []string{"url", "scraped_at", "html_content", "page_title", "meta_description"}},
	{"social_media", []string{"post", "likes", "shares", "comments", "followers", "hashtag", "mention"}},
	{"financial", []string{"transaction", "amount", "account", "balance", "payment", "invoice", "ledger"}},
	{"healthcare", []string{"patient", "diagnosis", "treatment", "medication", "doctor", "appointment"}},
	{"marketing", []string{"campaign", "impression", "click", "conversion", "ad_spend", "roi"}},
	{"customer_data", []string{"customer_id", "email", "phone", "address", "loyalty_points"}},
	{"inventory", []string{"stock", "warehouse", "bin_location", "quantity_on_hand"}},
	{"sales", []string{"invoice", "revenue", "discount", "tax", "total_amount"}},
}

// entityRules categorize a batch into an entity type using the same scoring.
var entityRules = []rule{
	{"products", []string{"product", "sku", "price", "category"}},
	{"orders", []string{"order", "order_id", "total", "customer"}},
	{"employees", []string{"employee", "staff", "worker", "hire_date"}},
	{"customers", []string{"customer", "client", "buyer", "user"}},
	{"transactions", []string{"transaction", "payment", "amount"}},
	{"logs", []string{"log", "timestamp", "level", "message"}},
	{"sensors", []string{"sensor", "reading", "measurement"}},
	{"events", []string{"event", "occurred_at", "event_type"}},
}

// domainTable maps each source to its storage domain.
var domainTable = map[string]string{
	"ecommerce":     "ecommerce_db",
	"hr":            "hr_db",
	"api_logs":      "api_logs_db",
	"iot_sensors":   "iot_sensors_db",
	"web_scraping":  "web_scraping_db",
	"social_media":  "social_media_db",
	"financial":     "financial_db",
	"healthcare":    "healthcare_db",
	"marketing":     "marketing_db",
	"customer_data": "customer_data_db",
	"inventory":     "inventory_db",
	"sales":         "sales_db",
}

// retentionTable holds days of retention per source. Driven by the
// compliance horizon of each domain, not by storage cost.
var retentionTable = map[string]int{
	"ecommerce":     2555, // 7 years, tax compliance
	"hr":            3650, // 10 years, employment records
	"api_logs":      30,
	"iot_sensors":   90,
	"web_scraping":  180,
	"social_media":  365,
	"financial":     3650, // 10 years, financial compliance
	"healthcare":    7300, // 20 years, medical records
	"marketing":     730,
	"customer_data": 1825, // 5 years, GDPR
	"inventory":     1095,
	"sales":         2555,
}

// Sources lists every known source category in sorted order.
func Sources() []string {
	out := make([]string, 0, len(domainTable))
	for source := range domainTable {
		out = append(out, source)
	}
	sort.Strings(out)
	return out
}
