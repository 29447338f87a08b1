package model

// Item は出品された物品を表す。
type Item struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	CategoryID    int64    `json:"categoryId"`
	UserID        int64    `json:"userId"`
	ConditionType int      `json:"conditionType"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"originalPrice"`
	IsFree        int      `json:"isFree"`
	Status        int      `json:"status"`
	ViewCount     int64    `json:"viewCount"`
	FavoriteCount int64    `json:"favoriteCount"`
	ContactMethod string   `json:"contactMethod,omitempty"`
	Location      string   `json:"location,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	Tags          string   `json:"tags,omitempty"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
	ReviewedAt    string   `json:"reviewedAt,omitempty"`
	ReviewedBy    *int64   `json:"reviewedBy,omitempty"`

	// 関連フィールド
	Category *Category `json:"category,omitempty"`
	User     *User     `json:"user,omitempty"`
	Images   []Image   `json:"images,omitempty"`

	// Favorited はクライアント側だけが保持するお気に入りフラグ。
	// 楽観的更新でキャッシュ上の値を反転させる。
	Favorited bool `json:"isFavorited,omitempty"`
}

// Image は物品に添付された画像を表す。
type Image struct {
	ID           int64  `json:"id"`
	ItemID       int64  `json:"itemId"`
	UserID       int64  `json:"userId"`
	OriginalName string `json:"originalName,omitempty"`
	FileName     string `json:"fileName"`
	FilePath     string `json:"filePath"`
	FileSize     int64  `json:"fileSize"`
	MimeType     string `json:"mimeType"`
	Width        *int   `json:"width,omitempty"`
	Height       *int   `json:"height,omitempty"`
	SortOrder    int    `json:"sortOrder"`
	CreatedAt    string `json:"createdAt"`
}

// Category は物品分類の階層ノードを表す。クライアントからは読み取り専用。
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	ParentID    int64  `json:"parentId"`
	SortOrder   int    `json:"sortOrder"`
	Status      int    `json:"status"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// CategoryInput は分類の作成・更新リクエストのボディ。
type CategoryInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	ParentID    *int64 `json:"parentId,omitempty"`
	SortOrder   *int   `json:"sortOrder,omitempty"`
	Status      *int   `json:"status,omitempty"`
}

// Favorite はユーザーと物品のお気に入り関係を表す。
// (user, item) の一意性はサーバー側で保証される。
type Favorite struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	ItemID    int64  `json:"itemId"`
	CreatedAt string `json:"createdAt"`
}

// ItemStatus は物品の審査・公開状態を表す。
type ItemStatus int

const (
	// ItemStatusDeleted は削除済み。
	ItemStatusDeleted ItemStatus = 0
	// ItemStatusPending は審査待ち。
	ItemStatusPending ItemStatus = 1
	// ItemStatusApproved は審査通過（販売中）。
	ItemStatusApproved ItemStatus = 2
	// ItemStatusRejected は審査却下。
	ItemStatusRejected ItemStatus = 3
	// ItemStatusOffline は取り下げ済み。
	ItemStatusOffline ItemStatus = 4
)

// ItemCondition は物品の新旧程度を表す。
type ItemCondition int

const (
	ItemConditionNew        ItemCondition = 1
	ItemConditionLikeNew    ItemCondition = 2
	ItemConditionLightUse   ItemCondition = 3
	ItemConditionObviousUse ItemCondition = 4
	ItemConditionNeedRepair ItemCondition = 5
)

// CategoryStatus は分類の有効状態を表す。
type CategoryStatus int

const (
	CategoryStatusDisabled CategoryStatus = 0
	CategoryStatusNormal   CategoryStatus = 1
)

// ItemSearchParams は物品検索のクエリパラメータ。
// nilおよび空文字のフィールドはクエリ文字列に含めない。
type ItemSearchParams struct {
	Keyword       string
	CategoryID    *int64
	ConditionType *int
	IsFree        *int
	MinPrice      *float64
	MaxPrice      *float64
	SortBy        string
	Location      string
	Page          *int
	Size          *int
}

// ItemCreateRequest は物品出品リクエストのボディ。
type ItemCreateRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	CategoryID    int64    `json:"categoryId"`
	ConditionType int      `json:"conditionType"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"originalPrice"`
	IsFree        int      `json:"isFree"`
	ContactMethod string   `json:"contactMethod,omitempty"`
	Location      string   `json:"location,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	Tags          string   `json:"tags,omitempty"`
	UserID        int64    `json:"userId"`
}

// ItemUpdateRequest は物品更新リクエストのボディ。
// nilフィールドは送信しない部分更新。
type ItemUpdateRequest struct {
	ID            int64    `json:"id"`
	Title         *string  `json:"title,omitempty"`
	Description   *string  `json:"description,omitempty"`
	CategoryID    *int64   `json:"categoryId,omitempty"`
	ConditionType *int     `json:"conditionType,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	IsFree        *int     `json:"isFree,omitempty"`
	ContactMethod *string  `json:"contactMethod,omitempty"`
	Location      *string  `json:"location,omitempty"`
	Tags          *string  `json:"tags,omitempty"`
}

// FavoriteStatus はお気に入り状態の確認結果。
type FavoriteStatus struct {
	IsFavorite bool `json:"isFavorite"`
}

// FavoriteStats はお気に入り数の統計。
type FavoriteStats struct {
	TotalFavorites int64 `json:"totalFavorites"`
}

// FileUpload はファイルアップロードの結果。
type FileUpload struct {
	FileName string `json:"fileName"`
	FilePath string `json:"filePath"`
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimeType"`
}
