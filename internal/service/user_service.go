package service

import (
	"context"
	"strings"

	"yatube/internal/models"
	"yatube/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo repository.UserRepository
	cost     int
}

type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, cost: bcrypt.DefaultCost}
}

// WithCost lowers the bcrypt cost, for tests and seeding.
func (s *UserService) WithCost(cost int) *UserService {
	s.cost = cost
	return s
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Username:  username,
		Email:     strings.TrimSpace(in.Email),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Password:  string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user when the password matches. Unknown users and
// wrong passwords give the same error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); cmpErr != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

// Delete removes a user together with everything they wrote.
func (s *UserService) Delete(ctx context.Context, username string) error {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, user.ID)
}
