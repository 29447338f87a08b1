package model

// Response はすべてのエンドポイントが返す共通エンベロープ。
// Success=false はHTTP 200でも返り得るアプリケーションレベルの失敗であり、
// 呼び出し元が明示的に分岐してMessageを表示する。
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// SortInfo はページのソート状態を表す。
type SortInfo struct {
	Sorted   bool `json:"sorted"`
	Unsorted bool `json:"unsorted"`
	Empty    bool `json:"empty"`
}

// Pageable はページ要求の情報を表す。
type Pageable struct {
	Sort       SortInfo `json:"sort"`
	PageNumber int      `json:"pageNumber"`
	PageSize   int      `json:"pageSize"`
	Offset     int64    `json:"offset"`
	Paged      bool     `json:"paged"`
	Unpaged    bool     `json:"unpaged"`
}

// Page は一覧系エンドポイントのページエンベロープ（Spring Data Page形式）。
type Page[T any] struct {
	Content          []T      `json:"content"`
	TotalElements    int64    `json:"totalElements"`
	Size             int      `json:"size"`
	Number           int      `json:"number"`
	TotalPages       int      `json:"totalPages"`
	First            bool     `json:"first"`
	Last             bool     `json:"last"`
	Empty            bool     `json:"empty"`
	NumberOfElements int      `json:"numberOfElements"`
	Pageable         Pageable `json:"pageable"`
	Sort             SortInfo `json:"sort"`
}

// PageRecords は旧形式のページエンベロープ。
type PageRecords[T any] struct {
	Records []T   `json:"records"`
	Total   int64 `json:"total"`
	Size    int   `json:"size"`
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
}

// ToPage は旧形式を現行のPage形式に変換する。Currentは1始まりとして扱う。
func (p PageRecords[T]) ToPage() Page[T] {
	number := p.Current - 1
	if number < 0 {
		number = 0
	}
	return Page[T]{
		Content:          p.Records,
		TotalElements:    p.Total,
		Size:             p.Size,
		Number:           number,
		TotalPages:       p.Pages,
		First:            number == 0,
		Last:             p.Pages == 0 || number >= p.Pages-1,
		Empty:            len(p.Records) == 0,
		NumberOfElements: len(p.Records),
	}
}
