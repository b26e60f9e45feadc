package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Dataset file names as published with the Olist data set.
const (
	CustomersFile    = "olist_customers_dataset.csv"
	SellersFile      = "olist_sellers_dataset.csv"
	ProductsFile     = "olist_products_dataset.csv"
	TranslationsFile = "product_category_name_translation.csv"
	OrdersFile       = "olist_orders_dataset.csv"
	OrderItemsFile   = "olist_order_items_dataset.csv"
	PaymentsFile     = "olist_order_payments_dataset.csv"
	ReviewsFile      = "olist_order_reviews_dataset.csv"
)

const timestampLayout = "2006-01-02 15:04:05"

type csvFile struct {
	name    string
	columns map[string]int
	rows    [][]string
}

func readCSV(dir, name string, required ...string) (*csvFile, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: missing header", name)
	}

	columns := make(map[string]int, len(records[0]))
	for i, c := range records[0] {
		columns[strings.TrimPrefix(strings.TrimSpace(c), "\ufeff")] = i
	}
	for _, c := range required {
		if _, ok := columns[c]; !ok {
			return nil, fmt.Errorf("read %s: missing column %q", name, c)
		}
	}
	return &csvFile{name: name, columns: columns, rows: records[1:]}, nil
}

func (f *csvFile) get(row []string, column string) string {
	i, ok := f.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// optInt parses counts that the data set sometimes writes as "40.0".
func optInt(s string) *int {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n := int(f)
	return &n
}

func optFloat(s string) *float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func atoi(s string) int {
	if n := optInt(s); n != nil {
		return *n
	}
	return 0
}

func atof(s string) float64 {
	if f := optFloat(s); f != nil {
		return *f
	}
	return 0
}

// optTime parses a dataset timestamp as UTC. Empty or malformed values are
// treated as missing.
func optTime(s string) *time.Time {
	t, err := time.ParseInLocation(timestampLayout, s, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}
