// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/joborders/internal/core"
)

const defaultPageSize = 10

type CreateUserRequest struct {
	Name     string   `json:"name"     validate:"required,min=1,max=255"`
	Email    string   `json:"email"    validate:"required,email,max=255"`
	Password string   `json:"password" validate:"required,min=8,max=128"`
	Roles    []string `json:"roles"    validate:"omitempty,dive,required,max=255"`
}

type UpdateUserRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
}

type AdminUpdateUserRequest struct {
	Name  string   `json:"name"  validate:"required,min=1,max=255"`
	Email string   `json:"email" validate:"required,email,max=255"`
	Roles []string `json:"roles" validate:"omitempty,dive,required,max=255"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserDetailResponse struct {
	UserResponse
	Permissions []string `json:"permissions"`
}

type UserFormResponse struct {
	User  *UserResponse `json:"user,omitempty"`
	Roles []string      `json:"roles"`
}

type ListUsersParams struct {
	core.Pagination
	Search string `json:"search"`
	Role   string `json:"role"`
}

func ToUserResponse(u *User) UserResponse {
	roles := []string(u.Roles)
	if roles == nil {
		roles = []string{}
	}
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Roles:     roles,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
