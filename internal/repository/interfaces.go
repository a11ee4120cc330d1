package repository

import (
	"context"
	"time"

	"nevermore-backend/internal/entity"
)

// OrderTx is the unit of work handed to the placement flow. All of its
// effects commit together or not at all.
type OrderTx interface {
	InsertOrder(ctx context.Context, order *entity.Order) (int64, error)
	// RedeemDiscount increments current_uses under the usage cap;
	// entity.ErrDiscountExhausted when the cap guard rejects it.
	RedeemDiscount(ctx context.Context, code string) error
	// VariantIDs returns the candidate variants of a product in stable
	// (id) order, narrowed by color when color is non-empty.
	VariantIDs(ctx context.Context, productID int64, color string) ([]int64, error)
	// DecrementStock subtracts qty from the matching inventory row only
	// if quantity >= qty; reports whether a row was decremented.
	DecrementStock(ctx context.Context, variantID int64, size string, qty int) (bool, error)
}

type OrderStore interface {
	Place(ctx context.Context, fn func(OrderTx) error) error
	Find(ctx context.Context, ref entity.OrderRef) (*entity.Order, error)
	FindForUser(ctx context.Context, userID int64, ref entity.OrderRef) (*entity.Order, error)
	ListByUser(ctx context.Context, userID int64, status string) ([]entity.Order, error)
	List(ctx context.Context, status string, userID int64) ([]entity.Order, error)
	UpdateStatus(ctx context.Context, ref entity.OrderRef, status string) error
}

type RefundStore interface {
	ExistsForOrder(ctx context.Context, orderCode string) (bool, error)
	Create(ctx context.Context, refund *entity.Refund) (int64, error)
	UpdateStatus(ctx context.Context, orderCode, status string) error
}

type DiscountStore interface {
	FindActive(ctx context.Context, code string) (*entity.DiscountCode, error)
	Exists(ctx context.Context, code string) (bool, error)
	List(ctx context.Context) ([]entity.DiscountCode, error)
	Create(ctx context.Context, d *entity.DiscountCode) (int64, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type InventoryStore interface {
	Row(ctx context.Context, variantID int64, size string) (*entity.InventoryRow, error)
}

type ProductStore interface {
	List(ctx context.Context, categorySlug string) ([]entity.Product, error)
	ByID(ctx context.Context, id int64) (*entity.Product, error)
	ByIDs(ctx context.Context, ids []int64) ([]entity.Product, error)
	Variations(ctx context.Context, productID int64) ([]entity.Variant, error)
	VariantSummaries(ctx context.Context, productID int64) ([]entity.VariantSummary, error)
	Search(ctx context.Context, term string, limit, offset int) ([]entity.Product, error)
	PopularIDs(ctx context.Context, since time.Time, limit int) ([]int64, error)
	LatestIDs(ctx context.Context, limit int) ([]int64, error)
	TrackClick(ctx context.Context, productID int64, day time.Time) error
	Categories(ctx context.Context) ([]entity.Category, error)
	CategoryImages(ctx context.Context) ([]entity.CategoryImage, error)
	CategoryBySlug(ctx context.Context, slug string) (*entity.Category, error)
	Create(ctx context.Context, product *entity.Product, variant *entity.Variant, inventory []entity.InventoryRow, images []entity.ProductImage) (int64, int64, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type UserStore interface {
	ByID(ctx context.Context, id int64) (*entity.User, error)
	ByEmail(ctx context.Context, email string) (*entity.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *entity.User, passwordHash, verificationToken string, expiresAt time.Time) (int64, error)
	Delete(ctx context.Context, id int64) error
	PasswordHash(ctx context.Context, id int64) (string, error)
	SetVerificationToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	VerifyByToken(ctx context.Context, token string, now time.Time) (*entity.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateNames(ctx context.Context, userID int64, firstName, lastName *string) error
	SetPendingEmail(ctx context.Context, userID int64, pendingEmail, tokenHash string, expiresAt time.Time) error
	CommitEmailChange(ctx context.Context, tokenHash string, now time.Time) (*entity.User, error)

	CountRecentResets(ctx context.Context, email string, since time.Time) (int, error)
	InvalidateResets(ctx context.Context, userID int64, now time.Time) error
	CreateReset(ctx context.Context, reset *entity.PasswordReset) error
	FindReset(ctx context.Context, tokenHash string, now time.Time) (*entity.PasswordReset, error)
	ResetPassword(ctx context.Context, resetID, userID int64, passwordHash string) error
}

type DesignStore interface {
	ListByUser(ctx context.Context, userID int64) ([]entity.Design, error)
	ByID(ctx context.Context, userID, id int64) (*entity.Design, error)
	ByName(ctx context.Context, userID int64, name string) (*entity.Design, error)
	Insert(ctx context.Context, d *entity.Design) (int64, error)
	Update(ctx context.Context, userID int64, d *entity.Design) (bool, error)
	Assets(ctx context.Context, userID, designID int64) ([]entity.DesignAsset, error)
	InsertAsset(ctx context.Context, a *entity.DesignAsset) (int64, error)
}
