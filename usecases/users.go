package usecases

import (
	"context"
	"strings"

	"iot-dashboard/entities"
	"iot-dashboard/logger"
	"iot-dashboard/repositories"
	"iot-dashboard/schemas"
)

type UserUseCase struct {
	Users     repositories.UserRepository
	validator *schemas.Validator
}

func NewUserUseCase(users repositories.UserRepository, validator *schemas.Validator) *UserUseCase {
	return &UserUseCase{Users: users, validator: validator}
}

func validateUser(u *entities.User) error {
	v := &ValidationError{}
	if strings.TrimSpace(u.Location) == "" {
		v.add("location", "location is required")
	}
	if u.PersonsInHouse < 1 {
		v.add("personsInHouse", "personsInHouse must be at least 1")
	}
	return v.orNil()
}

// List returns every user.
func (uc *UserUseCase) List(ctx context.Context) ([]entities.User, error) {
	users, err := uc.Users.GetAll(ctx)
	return users, translate("list users", err)
}

// Get returns the user with the given id.
func (uc *UserUseCase) Get(ctx context.Context, id string) (*entities.User, error) {
	user, err := uc.Users.GetByID(ctx, id)
	if err != nil {
		return nil, translate("get user", err)
	}
	return user, nil
}

// Create stores a new user. The house size is always derived from the
// number of persons; the id and timestamps are assigned by the store.
func (uc *UserUseCase) Create(ctx context.Context, user *entities.User) error {
	if err := validateUser(user); err != nil {
		return err
	}
	user.ID = ""
	user.HouseSize = entities.HouseSizeFor(user.PersonsInHouse)
	if err := uc.Users.Create(ctx, user); err != nil {
		return translate("create user", err)
	}
	logger.FromContext(ctx).WithField("userID", user.ID).Info("user created")
	return nil
}

// CreateJSON validates a raw payload against the user schema and stores it.
func (uc *UserUseCase) CreateJSON(ctx context.Context, body []byte) (*entities.User, error) {
	var in struct {
		Location       string `json:"location"`
		PersonsInHouse int    `json:"personsInHouse"`
	}
	if err := uc.validator.Decode(schemas.Users, schemas.Create, body, &in); err != nil {
		return nil, fromSchema(err)
	}
	user := &entities.User{Location: in.Location, PersonsInHouse: in.PersonsInHouse}
	if err := uc.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Update applies a partial update; absent fields keep their value.
func (uc *UserUseCase) Update(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	existing, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(existing)
	if err := validateUser(existing); err != nil {
		return nil, err
	}
	if err := uc.Users.Update(ctx, existing); err != nil {
		return nil, translate("update user", err)
	}
	return existing, nil
}

// UpdateJSON validates a raw partial payload and applies it.
func (uc *UserUseCase) UpdateJSON(ctx context.Context, id string, body []byte) (*entities.User, error) {
	var patch entities.UserPatch
	if err := uc.validator.Decode(schemas.Users, schemas.Patch, body, &patch); err != nil {
		return nil, fromSchema(err)
	}
	return uc.Update(ctx, id, patch)
}

// Delete removes a user and returns it as it was. Sensors referencing the
// user are left untouched.
func (uc *UserUseCase) Delete(ctx context.Context, id string) (*entities.User, error) {
	user, err := uc.Users.Delete(ctx, id)
	if err != nil {
		return nil, translate("delete user", err)
	}
	logger.FromContext(ctx).WithField("userID", id).Info("user deleted")
	return user, nil
}

func (uc *UserUseCase) Count(ctx context.Context) (int64, error) {
	n, err := uc.Users.Count(ctx)
	return n, translate("count users", err)
}
