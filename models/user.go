package models

import (
	"context"
	"errors"
	"time"

	"github.com/mwhebadata/erp_backend/config"
	"github.com/mwhebadata/erp_backend/utils"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:191;not null" json:"name"`
	Username  string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email     string    `gorm:"size:191" json:"email"`
	Password  string    `gorm:"size:191;not null" json:"-"`
	Role      UserRole  `gorm:"size:20;not null;default:staff" json:"role"`
	IsActive  *bool     `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NewUser struct {
	Name     string   `json:"name" binding:"required"`
	Username string   `json:"username" binding:"required"`
	Email    string   `json:"email"`
	Password string   `json:"password" binding:"required,min=8"`
	Role     UserRole `json:"role"`
}

func CreateUser(ctx context.Context, input NewUser) (*User, error) {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, errors.New("invalid email")
	}
	if input.Role == "" {
		input.Role = UserRoleStaff
	}
	if input.Role != UserRoleAdmin && input.Role != UserRoleStaff {
		return nil, errors.New("invalid role")
	}
	if err := utils.ValidateUnique[User](ctx, "username", input.Username, 0); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Name:     input.Name,
		Username: input.Username,
		Email:    input.Email,
		Password: hash,
		Role:     input.Role,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

var ErrInvalidCredentials = errors.New("invalid username or password")

// Authenticate checks credentials and returns a signed token on success.
func Authenticate(ctx context.Context, username, password string) (string, *User, error) {
	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if user.IsActive != nil && !*user.IsActive {
		return "", nil, ErrInvalidCredentials
	}
	if err := utils.ComparePassword(user.Password, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.JwtGenerate(user.ID, user.Name, string(user.Role))
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

func FetchUser(ctx context.Context, id int) (*User, error) {
	return utils.FetchModel[User](ctx, id)
}
