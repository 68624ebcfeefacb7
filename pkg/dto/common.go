package dto

// Page is one page of a listing together with the unpaged total.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// Upload is a file submitted by a client. MIME is the declared type; the
// store sniffs the content and does not trust it.
type Upload struct {
	Name string
	MIME string
	Data []byte
}

// Offset converts 1-based page numbers into a row offset.
func Offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
