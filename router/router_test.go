package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360/schemaflow/types"
)

func TestDetectSource(t *testing.T) {
	r := New(nil)

	cases := []struct {
		name   string
		fields []string
		want   string
	}{
		{"ecommerce", []string{"product_name", "price", "sku"}, "ecommerce"},
		{"hr", []string{"employee_id", "salary", "department"}, "hr"},
		{"api logs", []string{"endpoint", "status_code", "response_time"}, "api_logs"},
		{"iot", []string{"sensor_id", "temperature", "humidity"}, "iot_sensors"},
		{"healthcare", []string{"patient_id", "diagnosis", "medication"}, "healthcare"},
		{"case insensitive", []string{"Product_Name", "PRICE"}, "ecommerce"},
		{"no match", []string{"foo", "bar", "baz"}, DefaultSource},
		{"empty", nil, DefaultSource},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.DetectSource(tc.fields))
		})
	}
}

func TestDetectSource_KeywordCountsOncePerRule(t *testing.T) {
	r := New(nil)

	// "price" appearing in many fields still scores one point for the
	// keyword, so a single-keyword overlap cannot beat a broader match.
	fields := []string{"price_a", "price_b", "price_c", "employee_id", "salary"}
	assert.Equal(t, "hr", r.DetectSource(fields))
}

func TestDetectEntity(t *testing.T) {
	r := New(nil)

	cases := []struct {
		fields []string
		want   string
	}{
		{[]string{"product_name", "sku", "price"}, "products"},
		{[]string{"order_id", "total", "customer_name"}, "orders"},
		{[]string{"employee_id", "hire_date"}, "employees"},
		{[]string{"log_level", "timestamp", "message"}, "logs"},
		{[]string{"unrelated"}, DefaultEntity},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, r.DetectEntity(tc.fields))
	}
}

func TestDetect_TieBreaksLexicographically(t *testing.T) {
	r := New(nil)

	// "invoice" votes for both financial and sales with one point each;
	// financial sorts first.
	assert.Equal(t, "financial", r.DetectSource([]string{"invoice"}))
}

func TestRoute(t *testing.T) {
	r := New(nil)

	route := r.Route("ecommerce", "products")
	assert.Equal(t, types.CategoryRoute{
		Source:        "ecommerce",
		Entity:        "products",
		Domain:        "ecommerce_db",
		RetentionDays: 2555,
	}, route)

	route = r.Route("HealthCare", "Patients")
	assert.Equal(t, "healthcare_db", route.Domain)
	assert.Equal(t, 7300, route.RetentionDays)
	assert.Equal(t, "patients", route.Entity)
}

func TestRoute_UnknownSourceDefaults(t *testing.T) {
	r := New(nil)

	route := r.Route("mystery", "data")
	assert.Equal(t, DefaultDomain, route.Domain)
	assert.Equal(t, DefaultRetentionDays, route.RetentionDays)
}

func TestRouteBatch(t *testing.T) {
	r := New(nil)

	batch := types.Batch{
		types.RecordFromPairs("product_name", "Widget", "price", 9.99, "sku", "W-1"),
	}
	route := r.RouteBatch(batch)
	assert.Equal(t, "ecommerce", route.Source)
	assert.Equal(t, "products", route.Entity)
	assert.Equal(t, "ecommerce_db", route.Domain)
}
