package models

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"omitempty,min=2"`
	LastName  string `json:"last_name" binding:"omitempty,min=2"`
	Phone     string `json:"phone" binding:"omitempty"`
	Language  string `json:"language_preference" binding:"omitempty,len=2"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Language  string `json:"language_preference"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type AddToCartRequest struct {
	ArticleNr    string `json:"articlenr" binding:"required"`
	Quantity     int    `json:"quantity"`
	GuestSession string `json:"guest_session_id"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

type MergeCartRequest struct {
	GuestSession string `json:"guest_session_id" binding:"required"`
}

type CheckoutRequest struct {
	Email         string `json:"email" binding:"required,email"`
	FirstName     string `json:"first_name" binding:"required"`
	LastName      string `json:"last_name" binding:"required"`
	Phone         string `json:"phone"`
	Address       string `json:"address" binding:"required"`
	PostalCode    string `json:"postal_code" binding:"required"`
	City          string `json:"city" binding:"required"`
	Country       string `json:"country" binding:"required,len=2"`
	PaymentMethod string `json:"payment_method"`
	GuestSession  string `json:"guest_session_id"`
}

type CreatePaymentIntentRequest struct {
	OrderID int `json:"order_id" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required,oneof=pending awaiting_payment paid failed refunded"`
}

type CreateProductRequest struct {
	ArticleNr       string `json:"articlenr" form:"articlenr" binding:"required"`
	ArticleName     string `json:"articlename" form:"articlename" binding:"required"`
	Description     string `json:"description" form:"description"`
	Manufacturer    string `json:"manufacturer" form:"manufacturer"`
	Price           string `json:"price" form:"price" binding:"required"`
	Stock           int    `json:"stock" form:"stock"`
	Colour          string `json:"colour" form:"colour"`
	Size            string `json:"size" form:"size"`
	FatherArticle   string `json:"father_article" form:"father_article"`
	IsFatherArticle bool   `json:"is_father_article" form:"is_father_article"`
}

type UpdateProductRequest struct {
	ArticleName  string `json:"articlename" form:"articlename"`
	Description  string `json:"description" form:"description"`
	Manufacturer string `json:"manufacturer" form:"manufacturer"`
	Price        string `json:"price" form:"price"`
	Stock        *int   `json:"stock" form:"stock"`
	IsActive     *bool  `json:"is_active" form:"is_active"`
}

type CreatePageRequest struct {
	Slug        string `json:"slug" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	ShowInMenu  bool   `json:"show_in_menu"`
	MenuOrder   int    `json:"menu_order"`
}

type UpdatePageRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ShowInMenu  *bool  `json:"show_in_menu"`
	MenuOrder   *int   `json:"menu_order"`
}

type CreateBlockRequest struct {
	BlockType string `json:"block_type" binding:"required"`
	Content   string `json:"content" binding:"required"`
	SortOrder int    `json:"sort_order"`
}

type UpdateBlockRequest struct {
	Content   string `json:"content"`
	SortOrder *int   `json:"sort_order"`
}

type ReorderBlocksRequest struct {
	BlockIDs []int `json:"block_ids" binding:"required"`
}
