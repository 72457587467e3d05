package dto

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

type Filter struct {
	Limit    int    `query:"limit"`
	Page     int    `query:"page"`
	Category string `query:"category"`
}

// Normalize replaces missing or non-positive paging values with defaults.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}

	return f
}
