package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/shophub/backend/internal/models"
)

// GormStore persists a user's cart snapshot as CartItem rows.
type GormStore struct {
	DB     *gorm.DB
	UserID uint
}

func (s *GormStore) Load(ctx context.Context) ([]Item, error) {
	var rows []models.CartItem
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", s.UserID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, Item{
			ProductID: r.ProductID,
			Name:      r.Name,
			Price:     r.Price,
			Image:     r.Image,
			Quantity:  r.Quantity,
		})
	}
	return items, nil
}

func (s *GormStore) Save(ctx context.Context, items []Item) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", s.UserID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		for _, it := range items {
			row := models.CartItem{
				UserID:    s.UserID,
				ProductID: it.ProductID,
				Name:      it.Name,
				Price:     it.Price,
				Image:     it.Image,
				Quantity:  it.Quantity,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) Clear(ctx context.Context) error {
	return s.DB.WithContext(ctx).
		Where("user_id = ?", s.UserID).
		Delete(&models.CartItem{}).Error
}
