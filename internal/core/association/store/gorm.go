package store

import (
	"context"
	"errors"
	"time"

	"recipe-linker/internal/core/association"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// recipeAssociationModel 每份食譜一筆，記錄產生關聯時的內容 hash
type recipeAssociationModel struct {
	ID         uint      `gorm:"primaryKey"`
	RecipeID   string    `gorm:"column:recipe_id;uniqueIndex;not null"`
	RecipeHash string    `gorm:"column:recipe_hash;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (recipeAssociationModel) TableName() string {
	return "recipe_associations"
}

// ingredientAssociationModel 單筆關聯，Position 保留原始順序
type ingredientAssociationModel struct {
	ID                  uint      `gorm:"primaryKey"`
	RecipeAssociationID uint      `gorm:"column:recipe_association_id;index;not null"`
	Ingredient          string    `gorm:"not null"`
	Amount              *string   `gorm:"column:amount"`
	Step                int       `gorm:"not null"`
	Text                string    `gorm:"not null"`
	Usage               *string   `gorm:"column:usage"`
	Position            int       `gorm:"not null;default:0"`
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`

	RecipeAssociation recipeAssociationModel `gorm:"foreignKey:RecipeAssociationID;constraint:OnDelete:CASCADE"`
}

func (ingredientAssociationModel) TableName() string {
	return "ingredient_associations"
}

// GormStore 以關聯式資料庫保存關聯
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 建立資料庫儲存
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Init 以 AutoMigrate 建立資料表
func (s *GormStore) Init(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&recipeAssociationModel{}, &ingredientAssociationModel{}); err != nil {
		return association.NewStoreError("migrate", "", err)
	}
	return nil
}

// Get 依 hash 判斷快取狀態
func (s *GormStore) Get(ctx context.Context, recipeID, hash string) (association.Lookup, error) {
	entry, err := s.Load(ctx, recipeID)
	if err != nil {
		return association.Lookup{}, err
	}
	return association.LookupFromEntry(entry, hash), nil
}

// Load 讀取整份快取
func (s *GormStore) Load(ctx context.Context, recipeID string) (*association.Entry, error) {
	var entry *association.Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent recipeAssociationModel
		if err := tx.Where("recipe_id = ?", recipeID).First(&parent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		var children []ingredientAssociationModel
		if err := tx.Where("recipe_association_id = ?", parent.ID).
			Order("position ASC").Order("id ASC").
			Find(&children).Error; err != nil {
			return err
		}

		entry = fromModels(parent, children)
		return nil
	})
	if err != nil {
		return nil, association.NewStoreError("load", recipeID, err)
	}
	return entry, nil
}

// Save 在同一交易中取代整份關聯
//
// 主表以 ON CONFLICT(recipe_id) upsert，並行的首次寫入不會撞到唯一索引，後寫入者勝出；
// created_at 只在第一次建立時寫入。
func (s *GormStore) Save(ctx context.Context, recipeID, hash string, associations []association.Association) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := recipeAssociationModel{RecipeID: recipeID, RecipeHash: hash}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "recipe_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"recipe_hash", "updated_at"}),
		}).Create(&upsert).Error; err != nil {
			return err
		}

		var parent recipeAssociationModel
		if err := tx.Where("recipe_id = ?", recipeID).First(&parent).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_association_id = ?", parent.ID).
			Delete(&ingredientAssociationModel{}).Error; err != nil {
			return err
		}

		if len(associations) == 0 {
			return nil
		}
		children := toModels(parent.ID, associations)
		return tx.Omit("RecipeAssociation").CreateInBatches(children, 100).Error
	})
	if err != nil {
		return association.NewStoreError("save", recipeID, err)
	}
	return nil
}

// Clear 先刪子表再刪主表；不存在時不做事
func (s *GormStore) Clear(ctx context.Context, recipeID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent recipeAssociationModel
		if err := tx.Where("recipe_id = ?", recipeID).First(&parent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Where("recipe_association_id = ?", parent.ID).
			Delete(&ingredientAssociationModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&parent).Error
	})
	if err != nil {
		return association.NewStoreError("clear", recipeID, err)
	}
	return nil
}

// Ping 檢查資料庫連線
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return association.NewStoreError("ping", "", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return association.NewStoreError("ping", "", err)
	}
	return nil
}

// Close 關閉底層連線
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toModels(parentID uint, associations []association.Association) []ingredientAssociationModel {
	out := make([]ingredientAssociationModel, len(associations))
	for i, a := range associations {
		out[i] = ingredientAssociationModel{
			RecipeAssociationID: parentID,
			Ingredient:          a.Ingredient,
			Amount:              a.Amount,
			Step:                a.Step,
			Text:                a.Text,
			Usage:               a.Usage,
			Position:            i,
		}
	}
	return out
}

func fromModels(parent recipeAssociationModel, children []ingredientAssociationModel) *association.Entry {
	associations := make([]association.Association, len(children))
	for i, c := range children {
		associations[i] = association.Association{
			Ingredient: c.Ingredient,
			Amount:     c.Amount,
			Step:       c.Step,
			Text:       c.Text,
			Usage:      c.Usage,
		}
	}
	return &association.Entry{
		RecipeID:     parent.RecipeID,
		RecipeHash:   parent.RecipeHash,
		Associations: associations,
		CreatedAt:    parent.CreatedAt,
		UpdatedAt:    parent.UpdatedAt,
	}
}
