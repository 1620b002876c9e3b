package models

// BackendPagination page metadata returned to the console
type BackendPagination struct {
	Size       int `json:"size"`
	Page       int `json:"page"`
	Count      int `json:"count"`
	TotalPages int `json:"total_pages"`
}

// DefaultPageSize rows per page when none is requested
const DefaultPageSize = 10

// AllowedPageSizes page sizes the console offers
var AllowedPageSizes = []int{10, 20, 50, 100}

// NormalizePageSize falls back to def (or DefaultPageSize) for unsupported sizes
func NormalizePageSize(size, def int) int {
	for _, s := range AllowedPageSizes {
		if s == size {
			return size
		}
	}
	for _, s := range AllowedPageSizes {
		if s == def {
			return def
		}
	}
	return DefaultPageSize
}

// TotalPages ceil(total/size); 0 for an empty set
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// ClampPage keeps page within [1, max(totalPages, 1)]
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	last := totalPages
	if last < 1 {
		last = 1
	}
	if page > last {
		return last
	}
	return page
}

// Paginate returns the clamped pagination and the [start, end) window
func Paginate(total, page, size int) (BackendPagination, int, int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := TotalPages(total, size)
	page = ClampPage(page, pages)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return BackendPagination{Size: size, Page: page, Count: total, TotalPages: pages}, start, end
}

// PageSlice slices items for page
func PageSlice[T any](items []T, page, size int) ([]T, BackendPagination) {
	p, start, end := Paginate(len(items), page, size)
	return items[start:end], p
}

// PageState list view cursor: any filter or page size change returns to page 1
type PageState struct {
	page   int
	size   int
	search string
	status string
	role   string
}

// NewPageState starts at page 1
func NewPageState(size int) *PageState {
	return &PageState{page: 1, size: NormalizePageSize(size, DefaultPageSize)}
}

func (s *PageState) Page() int { return s.page }

func (s *PageState) Size() int { return s.size }

func (s *PageState) Search() string { return s.search }

func (s *PageState) Status() string { return s.status }

func (s *PageState) Role() string { return s.role }

// SetPage ignores values below 1; clamping to the upper bound happens in Clamp
func (s *PageState) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.page = page
}

func (s *PageState) SetPageSize(size int) {
	size = NormalizePageSize(size, s.size)
	if size != s.size {
		s.size = size
		s.page = 1
	}
}

func (s *PageState) SetSearch(search string) {
	if search != s.search {
		s.search = search
		s.page = 1
	}
}

func (s *PageState) SetStatus(status string) {
	if status != s.status {
		s.status = status
		s.page = 1
	}
}

func (s *PageState) SetRole(role string) {
	if role != s.role {
		s.role = role
		s.page = 1
	}
}

// Clamp applies the result count and returns the resulting pagination
func (s *PageState) Clamp(total int) BackendPagination {
	p, _, _ := Paginate(total, s.page, s.size)
	s.page = p.Page
	return p
}
