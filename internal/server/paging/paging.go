// Package paging holds page/page-size arithmetic shared by the read-only
// query surfaces.
package paging

// Page is a 1-based page request. Out-of-range values are clamped.
type Page struct {
	Number int
	Size   int
}

const (
	DefaultSize = 50
	MaxSize     = 100
)

// Normalize clamps the page number and size into valid ranges.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultSize
	}
	if p.Size > MaxSize {
		p.Size = MaxSize
	}
	return p
}

func (p Page) Limit() int {
	return p.Normalize().Size
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Number - 1) * n.Size
}

// Meta describes one returned page.
type Meta struct {
	Page       int
	PageSize   int
	TotalCount int64
	TotalPages int64
}

func NewMeta(p Page, total int64) Meta {
	n := p.Normalize()
	pages := (total + int64(n.Size) - 1) / int64(n.Size)
	return Meta{
		Page:       n.Number,
		PageSize:   n.Size,
		TotalCount: total,
		TotalPages: pages,
	}
}
