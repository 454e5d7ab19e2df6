package model

import (
	"time"

	"gorm.io/gorm"
)

type ProductCategory string

const (
	CategoryWeapon     ProductCategory = "weapon"
	CategoryShield     ProductCategory = "shield"
	CategoryArmour     ProductCategory = "armour"
	CategoryRelic      ProductCategory = "relic"
	CategoryConsumable ProductCategory = "consumable"
)

type ProductRarity string

const (
	RarityCommon ProductRarity = "common"
	RarityRare   ProductRarity = "rare"
	RarityMythic ProductRarity = "mythic"
	RarityRelic  ProductRarity = "relic"
)

// 金額はペンス（整数）で保存。floatは使わない。
type Product struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SKU              string          `gorm:"type:varchar(32);not null;uniqueIndex" json:"sku"`
	Name             string          `gorm:"type:varchar(140);not null" json:"name"`
	Slug             string          `gorm:"type:varchar(160);not null;uniqueIndex" json:"slug"`
	Category         ProductCategory `gorm:"type:varchar(20);not null;index" json:"category"`
	Rarity           ProductRarity   `gorm:"type:varchar(20);not null" json:"rarity"`
	PricePence       int64           `gorm:"not null" json:"price_pence"`
	StockQty         int64           `gorm:"not null;default:0" json:"stock_qty"`
	ShortDescription string          `gorm:"type:varchar(255)" json:"short_description"`
	Description      string          `gorm:"type:text" json:"description"`
	IsActive         bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (p Product) InStock() bool {
	return p.StockQty > 0
}
