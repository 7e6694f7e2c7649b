package search

import (
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps Offset from overflowing; any page past the data is empty.
	MaxPage = math.MaxInt / MaxLimit
)

// Params holds the list query string: ?page=&limit=&search=&ordering=
// A leading "-" on ordering sorts descending.
type Params struct {
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
	Search   string `json:"search"`
	Ordering string `json:"ordering"`
}

// Result is one page of rows plus the total before pagination.
type Result[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}

func FromQuery(c *fiber.Ctx) Params {
	return Params{
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", DefaultLimit),
		Search:   strings.TrimSpace(c.Query("search", "")),
		Ordering: strings.TrimSpace(c.Query("ordering", "")),
	}
}

func (p *Params) normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// Offset is the number of rows skipped for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ApplySearch adds a case-insensitive OR match of the search term across columns.
func ApplySearch(query *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return query
	}

	like := "%" + strings.ToLower(term) + "%"
	conditions := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		conditions = append(conditions, "LOWER("+col+") LIKE ?")
		args = append(args, like)
	}
	return query.Where("("+strings.Join(conditions, " OR ")+")", args...)
}

// ApplyOrdering orders by the requested column when it is allowed, otherwise
// by fallback. Column names never come straight from the request.
func ApplyOrdering(query *gorm.DB, ordering string, allowed []string, fallback string) *gorm.DB {
	direction := "asc"
	field := ordering
	if strings.HasPrefix(field, "-") {
		direction = "desc"
		field = strings.TrimPrefix(field, "-")
	}

	for _, col := range allowed {
		if col == field {
			return query.Order(col + " " + direction)
		}
	}
	return query.Order(fallback)
}

// Paginate counts query, then loads the requested page into a Result with
// the named associations preloaded.
func Paginate[T any](query *gorm.DB, params Params, preloads ...string) (*Result[T], error) {
	params.normalize()

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	for _, p := range preloads {
		query = query.Preload(p)
	}
	items := make([]T, 0)
	if err := query.Offset(params.Offset()).Limit(params.Limit).Find(&items).Error; err != nil {
		return nil, err
	}

	return &Result[T]{Items: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}
