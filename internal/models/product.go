package models

import "time"

// ProductStatus controls catalog visibility.
type ProductStatus string

const (
	StatusActive ProductStatus = "active"
	StatusDraft  ProductStatus = "draft"
)

// Valid reports whether s is a known status.
func (s ProductStatus) Valid() bool {
	return s == StatusActive || s == StatusDraft
}

// AssetType is the kind of media an asset holds.
type AssetType string

const (
	AssetImage AssetType = "IMAGE"
	AssetVideo AssetType = "VIDEO"
)

// DefaultAssetAlt is the alt text given to every uploaded asset.
const DefaultAssetAlt = "Alt-Image-Produk.png"

// Product represents a catalog item.
type Product struct {
	ID            string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string        `json:"name" gorm:"type:varchar(255);not null"`
	Price         float64       `json:"price" gorm:"not null"`
	Description   string        `json:"description" gorm:"type:text"`
	Specification string        `json:"specification" gorm:"type:text"`
	CategoryID    string        `json:"category_id" gorm:"type:varchar(36);index"`
	Category      *Category     `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	Discount      int           `json:"discount" gorm:"not null;default:0"`
	Featured      bool          `json:"featured" gorm:"not null"`
	Status        ProductStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	Assets        []Asset       `json:"assets" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time     `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Category groups products. Names are unique regardless of case.
type Category struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"category" gorm:"column:category;type:varchar(50);not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps categories in their historical table.
func (Category) TableName() string {
	return "product_categories"
}

// Asset is an ordered image or video attached to a product. Order 1 is the main image;
// a product's orders always form 1..N.
type Asset struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"type:varchar(36);not null;index"`
	URL       string    `json:"url" gorm:"type:varchar(255);not null"`
	Alt       string    `json:"alt" gorm:"type:varchar(255);not null"`
	Type      AssetType `json:"type" gorm:"type:varchar(8);not null"`
	Order     int       `json:"order" gorm:"column:sort_order;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AssetFiles returns the stored file names of assets.
func AssetFiles(assets []Asset) []string {
	files := make([]string, 0, len(assets))
	for _, a := range assets {
		files = append(files, a.URL)
	}
	return files
}

// UploadedFile is a file the upload middleware has already written to storage.
type UploadedFile struct {
	Filename     string `json:"filename"`     // stored name, referenced by Asset.URL
	OriginalName string `json:"originalname"` // name sent by the client
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
}

// UploadedFilenames returns the stored names of files.
func UploadedFilenames(files []UploadedFile) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Filename)
	}
	return names
}
