package shared

// Filter carries paging, ordering and equality conditions for list queries.
// Repositories only honour the condition keys they know.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Filters  map[string]interface{}
}

// DefaultFilter returns page 1 of 20, newest first
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}
}

// Where returns a copy of f with key = value added. An empty string value
// leaves the filter unchanged so optional query parameters pass straight in.
func (f Filter) Where(key string, value interface{}) Filter {
	if s, ok := value.(string); ok && s == "" {
		return f
	}
	conditions := make(map[string]interface{}, len(f.Filters)+1)
	for k, v := range f.Filters {
		conditions[k] = v
	}
	conditions[key] = value
	f.Filters = conditions
	return f
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
