// Package service implements the application's use-case layer. Every method
// takes the acting user's identity explicitly; nothing reads ambient
// request state.
package service

import (
	"context"

	"warbler/internal/models"
	"warbler/internal/repository"
	"warbler/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UserService provides account lifecycle and user lookup business logic.
type UserService struct {
	userRepo repository.UserRepository
}

// SignupInput carries the fields of the signup form.
type SignupInput struct {
	Username string
	Email    string
	Password string
	ImageURL string
}

// UpdateProfileInput carries the fields of the profile edit form.
// Password is the user's current password and is re-verified before any
// change is applied.
type UpdateProfileInput struct {
	Username       string
	Email          string
	ImageURL       string
	HeaderImageURL string
	Bio            string
	Location       string
	Password       string
}

const maxProfileFieldLen = 40

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Signup validates the input, hashes the password, and creates the account.
// A duplicate username or email yields a conflict error with nothing persisted.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashed),
		ImageURL: in.ImageURL,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate looks the user up by username and verifies the password
// against the stored bcrypt digest. A missing user or a wrong password
// both return (nil, nil): a lookup outcome, not a failure.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, nil
	}
	return user, nil
}

// UpdateProfile re-verifies the current password, then applies the edits.
// A wrong password yields an unauthorized error and no change.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	verified, err := s.Authenticate(ctx, user.Username, in.Password)
	if err != nil {
		return nil, err
	}
	if verified == nil {
		return nil, models.NewUnauthorizedError("Access unauthorized.")
	}

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if len(in.Bio) > maxProfileFieldLen {
		return nil, models.NewValidationError("Bio too long (max 40 characters)")
	}
	if len(in.Location) > maxProfileFieldLen {
		return nil, models.NewValidationError("Location too long (max 40 characters)")
	}

	user.Username = in.Username
	user.Email = in.Email
	user.ImageURL = in.ImageURL
	user.HeaderImageURL = in.HeaderImageURL
	user.Bio = in.Bio
	user.Location = in.Location

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the user and all dependent rows.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, userID)
}

// Get returns the user with the given id.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Search returns all users, or those whose username contains q.
func (s *UserService) Search(ctx context.Context, q string) ([]models.User, error) {
	return s.userRepo.Search(ctx, q)
}
