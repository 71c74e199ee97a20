package repositories

import (
	"context"

	"iot-dashboard/db"
	"iot-dashboard/entities"
)

type userPgRepository struct {
	db db.Database
}

func NewUserPgRepository(database db.Database) UserRepository {
	return &userPgRepository{db: database}
}

func (r *userPgRepository) Create(ctx context.Context, user *entities.User) error {
	return r.db.GetDB().WithContext(ctx).Create(user).Error
}

func (r *userPgRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	if err := first(ctx, r.db, &user, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userPgRepository) GetAll(ctx context.Context) ([]entities.User, error) {
	users := []entities.User{}
	err := r.db.GetDB().WithContext(ctx).Order("created_at ASC").Find(&users).Error
	return users, err
}

func (r *userPgRepository) Update(ctx context.Context, user *entities.User) error {
	return save(ctx, r.db, user, user.ID)
}

func (r *userPgRepository) Delete(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	if err := remove(ctx, r.db, &user, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userPgRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.User{}).Count(&n).Error
	return n, err
}
