package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/venuelink/service-booking/internal/domain/apperr"
	"github.com/venuelink/service-booking/internal/domain/catalog"
)

// ProductModel is the GORM persistence model for the product catalog.
type ProductModel struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement"`
	PublicID           uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	VendorID           uuid.UUID `gorm:"type:uuid;index;not null"`
	Name               string    `gorm:"type:varchar(200);not null"`
	BasePriceSingleDay int64     `gorm:"not null"`
	BasePriceMultiDay  int64     `gorm:"not null"`
	AdvanceType        string    `gorm:"type:varchar(20);not null"`
	AdvanceValue       int64     `gorm:"not null"`
	Currency           string    `gorm:"type:varchar(3);not null"`
	CreatedAt          time.Time `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (ProductModel) TableName() string { return "products" }

// ProductRepositoryImpl backs the catalog lookup with the local products
// table. It satisfies catalog.Service.
type ProductRepositoryImpl struct {
	db *gorm.DB
}

// NewProductRepository creates a new GORM-based product repository.
func NewProductRepository(db *gorm.DB) *ProductRepositoryImpl {
	return &ProductRepositoryImpl{db: db}
}

// GetProduct resolves a product by its public identifier.
func (r *ProductRepositoryImpl) GetProduct(ctx context.Context, publicID uuid.UUID) (*catalog.Product, error) {
	var model ProductModel
	if err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFoundError("product", publicID.String())
		}
		return nil, err
	}
	return &catalog.Product{
		PublicID:           model.PublicID,
		VendorID:           model.VendorID,
		Name:               model.Name,
		BasePriceSingleDay: model.BasePriceSingleDay,
		BasePriceMultiDay:  model.BasePriceMultiDay,
		AdvanceType:        catalog.AdvanceType(model.AdvanceType),
		AdvanceValue:       model.AdvanceValue,
		Currency:           model.Currency,
	}, nil
}

// Save inserts a product. Used by provisioning and tests.
func (r *ProductRepositoryImpl) Save(ctx context.Context, p *catalog.Product) error {
	model := &ProductModel{
		PublicID:           p.PublicID,
		VendorID:           p.VendorID,
		Name:               p.Name,
		BasePriceSingleDay: p.BasePriceSingleDay,
		BasePriceMultiDay:  p.BasePriceMultiDay,
		AdvanceType:        string(p.AdvanceType),
		AdvanceValue:       p.AdvanceValue,
		Currency:           p.Currency,
		CreatedAt:          time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Create(model).Error
}
