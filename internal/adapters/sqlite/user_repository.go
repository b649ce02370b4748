package sqlite

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opsenary/apptracker/internal/adapters/sqlite/gormsqlite"
	"github.com/opsenary/apptracker/internal/core/domain"
)

type UserRepository struct {
	db *gormsqlite.DB
}

func NewUserRepository(db *gormsqlite.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	model := userToModel(*user)
	model.ID = 0
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	user.ID = model.ID
	return nil
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	model := userToModel(*user)
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(&userModel{}).Where("id = ?", model.ID).Select("*").Omit("id", "created_at", "created_by_id").Updates(model)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id int64) (domain.User, error) {
	var model userModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id = ?", id).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return model.toDomain(), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	var model userModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("username = ?", username).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return model.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	var models []userModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Order("username ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]domain.User, 0, len(models))
	for _, model := range models {
		users = append(users, model.toDomain())
	}
	return users, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Where("id = ?", id).Delete(&userModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

type TokenRepository struct {
	db *gormsqlite.DB
}

func NewTokenRepository(db *gormsqlite.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (domain.UserToken, error) {
	var model userTokenModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("token_hash = ?", tokenHash).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserToken{}, domain.ErrNotFound
		}
		return domain.UserToken{}, fmt.Errorf("find token: %w", err)
	}
	return domain.UserToken{
		TokenHash: model.TokenHash,
		UserID:    model.UserID,
		Name:      model.Name,
		Active:    model.Active,
		CreatedAt: model.CreatedAt,
	}, nil
}

func (r *TokenRepository) Upsert(ctx context.Context, token domain.UserToken) error {
	model := userTokenModel{
		TokenHash: token.TokenHash,
		UserID:    token.UserID,
		Name:      token.Name,
		Active:    token.Active,
		CreatedAt: token.CreatedAt,
	}
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_hash"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "name", "active"}),
		}).Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}
