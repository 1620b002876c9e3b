package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalPagesAndClamp(t *testing.T) {
	for _, size := range AllowedPageSizes {
		for n := 0; n <= 250; n += 7 {
			pages := TotalPages(n, size)
			assert.Equal(t, (n+size-1)/size, pages)
			for _, page := range []int{-3, 0, 1, 2, pages, pages + 1, 1000} {
				got := ClampPage(page, pages)
				assert.GreaterOrEqual(t, got, 1)
				if pages > 0 {
					assert.LessOrEqual(t, got, pages)
				} else {
					assert.Equal(t, 1, got)
				}
			}
		}
	}
}

func TestPaginate_EmptySet(t *testing.T) {
	p, start, end := Paginate(0, 5, 10)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 0, p.TotalPages)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}

func TestPageSlice_ClampsToLastPage(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}
	got, p := PageSlice(items, 9, 10)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, []int{20, 21, 22}, got)

	got, p = PageSlice(items, 2, 20)
	assert.Equal(t, 2, p.Page)
	assert.Len(t, got, 3)
}

func TestNormalizePageSize(t *testing.T) {
	assert.Equal(t, 50, NormalizePageSize(50, 10))
	assert.Equal(t, 20, NormalizePageSize(33, 20))
	assert.Equal(t, DefaultPageSize, NormalizePageSize(0, 7))
}

func TestPageState_ResetsOnChange(t *testing.T) {
	s := NewPageState(0)
	assert.Equal(t, DefaultPageSize, s.Size())

	s.SetPage(4)
	s.SetSearch("dela cruz")
	assert.Equal(t, 1, s.Page())

	s.SetPage(3)
	s.SetSearch("dela cruz")
	assert.Equal(t, 3, s.Page(), "same search keeps the page")

	s.SetStatus("outdated")
	assert.Equal(t, 1, s.Page())

	s.SetPage(2)
	s.SetRole("admin")
	assert.Equal(t, 1, s.Page())
	assert.Equal(t, "admin", s.Role())

	s.SetPage(5)
	s.SetPageSize(50)
	assert.Equal(t, 1, s.Page())
	assert.Equal(t, 50, s.Size())

	s.SetPage(7)
	p := s.Clamp(120)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 3, s.Page())

	p = s.Clamp(0)
	assert.Equal(t, 1, p.Page)
}
