package response

// Paginator describes one page of a larger result set. Count is the number
// of items on this page (callers pass len of the slice in Items).
type Paginator struct {
	Items   any
	Count   int
	Total   int
	Page    int
	PerPage int
}

type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	LastPage     int  `json:"last_page"`
	PerPage      int  `json:"per_page"`
	Total        int  `json:"total"`
	From         *int `json:"from"`
	To           *int `json:"to"`
	HasMorePages bool `json:"has_more_pages"`
}

func (p *Paginator) lastPage() int {
	if p.PerPage <= 0 || p.Total <= 0 {
		return 1
	}
	last := (p.Total + p.PerPage - 1) / p.PerPage
	if last < 1 {
		last = 1
	}
	return last
}

func (p *Paginator) summary() *Pagination {
	var from, to *int
	if p.Count > 0 {
		f := (p.Page-1)*p.PerPage + 1
		t := f + p.Count - 1
		from, to = &f, &t
	}
	return &Pagination{
		CurrentPage:  p.Page,
		LastPage:     p.lastPage(),
		PerPage:      p.PerPage,
		Total:        p.Total,
		From:         from,
		To:           to,
		HasMorePages: p.Page < p.lastPage(),
	}
}
