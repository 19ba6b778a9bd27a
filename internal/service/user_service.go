package service

import (
	"context"

	"go-pos-api/internal/apperr"
	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"

	"github.com/google/uuid"
)

type UserService interface {
	Create(ctx context.Context, req *CreateUserRequest, actor Actor) (*model.User, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateUserRequest, actor Actor) (*model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error)
	GetAll(ctx context.Context) ([]model.UserResponse, error)
}

type userService struct {
	store repository.Store
}

func NewUserService(store repository.Store) UserService {
	return &userService{store: store}
}

func (s *userService) Create(ctx context.Context, req *CreateUserRequest, actor Actor) (*model.User, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if existing, _ := s.store.Users().FindByEmail(ctx, req.Email); existing != nil {
		return nil, &apperr.ConflictError{Message: "email already exists"}
	}

	user := &model.User{
		Email:       req.Email,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Role:        req.Role,
		IsActive:    true,
	}
	user.CreatedBy = actor.ID.String()
	user.UpdatedBy = actor.ID.String()

	if err := user.SetPassword(req.Password); err != nil {
		return nil, err
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, req *UpdateUserRequest, actor Actor) (*model.User, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		if other, _ := s.store.Users().FindByEmail(ctx, *req.Email); other != nil && other.ID != user.ID {
			return nil, &apperr.ConflictError{Message: "email already used by another user"}
		}
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, err
		}
	}
	user.UpdatedBy = actor.ID.String()

	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Users().Delete(ctx, id)
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) GetAll(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.store.Users().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]model.UserResponse, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse()
	}
	return responses, nil
}
