package pagination

const (
	// DefaultPageSize is the standard page size when a limit is not provided.
	DefaultPageSize = 5
	// MaxPageSize caps how many rows any page query can request.
	MaxPageSize = 100
)

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page describes the slice of results a query should return.
type Page struct {
	Number int
	Size   int
	Offset int
}

// Normalize clamps the raw inputs into a usable page description.
func Normalize(params Params) Page {
	page := params.Page
	if page <= 0 {
		page = 1
	}
	size := params.Limit
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{
		Number: page,
		Size:   size,
		Offset: (page - 1) * size,
	}
}

// Result wraps one page of rows with the count metadata clients page on.
type Result[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Results  []T   `json:"results"`
}

// NewResult assembles the paginated envelope. Results is never nil so the
// JSON encoding stays an array.
func NewResult[T any](rows []T, total int64, page Page) Result[T] {
	if rows == nil {
		rows = []T{}
	}
	return Result[T]{
		Count:    total,
		Page:     page.Number,
		PageSize: page.Size,
		Results:  rows,
	}
}
