package user

import (
	"context"

	"github.com/akgtechceo/pharmarx-sub003/entities"

	"gorm.io/gorm"
)

type (
	UserRepository interface {
		CreateUser(ctx context.Context, user *entities.User) error
		GetUserByID(ctx context.Context, id string) (*entities.User, error)
		GetUserByEmail(ctx context.Context, email string) (*entities.User, error)
		SearchPatients(ctx context.Context, query string, searchType string, limit int) ([]*entities.User, error)
	}

	userRepository struct {
		db *gorm.DB
	}
)

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) CreateUser(ctx context.Context, user *entities.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) SearchPatients(ctx context.Context, query string, searchType string, limit int) ([]*entities.User, error) {
	var users []*entities.User

	q := r.db.WithContext(ctx).Where("role = ?", "patient")
	switch searchType {
	case "name":
		q = q.Where("name ILIKE ?", "%"+query+"%")
	case "email":
		q = q.Where("email ILIKE ?", "%"+query+"%")
	case "phone":
		q = q.Where("phone_number LIKE ?", "%"+query+"%")
	}

	if err := q.Order("name ASC").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
