package content

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/videotube/backend/internal/apperr"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/validation"
)

// RegisterInput carries a new account. Avatar and CoverImage are paths of
// files already received on local disk.
type RegisterInput struct {
	Username   string `json:"username" validate:"required,alphanum,min=3,max=30"`
	Email      string `json:"email" validate:"required,email"`
	FullName   string `json:"fullName" validate:"required,notblank,max=100"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Avatar     string `json:"avatar" validate:"required"`
	CoverImage string `json:"coverImage"`
}

func (in *RegisterInput) normalize() {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
}

// LoginInput identifies an account by email or username.
type LoginInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" validate:"required"`
}

// AccountInput holds the editable profile fields.
type AccountInput struct {
	FullName string `json:"fullName" validate:"required,notblank,max=100"`
	Email    string `json:"email" validate:"required,email"`
}

// PasswordInput replaces a password.
type PasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// Register creates an account. Uploaded images are released again when the
// account cannot be stored.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return models.User{}, err
	}

	users := s.store.Users()
	sctx, cancel := s.bound(ctx)
	err := ensureAvailable(func() error {
		_, err := users.FindByUsername(sctx, in.Username)
		return err
	})
	if err == nil {
		err = ensureAvailable(func() error {
			_, err := users.FindByEmail(sctx, in.Email)
			return err
		})
	}
	cancel()
	if err != nil {
		return models.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost())
	if err != nil {
		return models.User{}, apperr.Wrap(apperr.Internal, "failed to secure password", err)
	}

	avatar, err := s.upload(ctx, in.Avatar)
	if err != nil {
		return models.User{}, err
	}
	var cover models.MediaRef
	if in.CoverImage != "" {
		if cover, err = s.upload(ctx, in.CoverImage); err != nil {
			s.discard(ctx, avatar)
			return models.User{}, err
		}
	}

	now := s.now()
	user := models.User{
		ID:         s.newID(),
		Username:   in.Username,
		Email:      in.Email,
		FullName:   in.FullName,
		Avatar:     avatar.URL,
		CoverImage: cover.URL,
		Password:   string(hashed),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	sctx, cancel = s.bound(ctx)
	defer cancel()
	if err := users.Create(sctx, user); err != nil {
		s.discard(ctx, avatar, cover)
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, errUserExists
		}
		return models.User{}, repositories.Classify(err, "user")
	}
	return user, nil
}

var errUserExists = apperr.New(apperr.Conflict, "user with email or username already exists")

func ensureAvailable(lookup func() error) error {
	err := lookup()
	switch {
	case err == nil:
		return errUserExists
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	default:
		return repositories.Classify(err, "user")
	}
}

// Authenticate checks a password against the account named by email or username.
func (s *Service) Authenticate(ctx context.Context, in LoginInput) (models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	if in.Email == "" && in.Username == "" {
		return models.User{}, apperr.New(apperr.InvalidArgument, "username or email is required")
	}
	if err := validation.Struct(in); err != nil {
		return models.User{}, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	var (
		user models.User
		err  error
	)
	if in.Username != "" {
		user, err = s.store.Users().FindByUsername(ctx, in.Username)
	} else {
		user, err = s.store.Users().FindByEmail(ctx, in.Email)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, apperr.New(apperr.NotFound, "user does not exist")
		}
		return models.User{}, repositories.Classify(err, "user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return models.User{}, apperr.New(apperr.Unauthenticated, "invalid user credentials")
	}
	return user, nil
}

// Current returns the actor's own account.
func (s *Service) Current(ctx context.Context, actorID string) (models.User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.actor(ctx, actorID)
}

// UpdateAccount changes the actor's full name and email.
func (s *Service) UpdateAccount(ctx context.Context, actorID string, in AccountInput) (models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return models.User{}, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	user, err := s.actor(ctx, actorID)
	if err != nil {
		return models.User{}, err
	}
	user.FullName = in.FullName
	user.Email = in.Email
	user.UpdatedAt = s.now()
	if err := s.store.Users().Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, apperr.New(apperr.Conflict, "email is already in use")
		}
		return models.User{}, repositories.Classify(err, "user")
	}
	return user, nil
}

// ChangePassword replaces the actor's password after checking the old one.
func (s *Service) ChangePassword(ctx context.Context, actorID string, in PasswordInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	user, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.OldPassword)); err != nil {
		return apperr.New(apperr.InvalidArgument, "invalid old password")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.hashCost())
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to secure password", err)
	}
	user.Password = string(hashed)
	user.UpdatedAt = s.now()
	return repositories.Classify(s.store.Users().Update(ctx, user), "user")
}

// UpdateAvatar replaces the actor's avatar with the file at localPath.
func (s *Service) UpdateAvatar(ctx context.Context, actorID, localPath string) (models.User, error) {
	if strings.TrimSpace(localPath) == "" {
		return models.User{}, apperr.New(apperr.InvalidArgument, "avatar file is missing")
	}
	return s.replaceImage(ctx, actorID, localPath, func(u *models.User, url string) { u.Avatar = url })
}

// UpdateCoverImage replaces the actor's cover image with the file at localPath.
func (s *Service) UpdateCoverImage(ctx context.Context, actorID, localPath string) (models.User, error) {
	if strings.TrimSpace(localPath) == "" {
		return models.User{}, apperr.New(apperr.InvalidArgument, "cover image file is missing")
	}
	return s.replaceImage(ctx, actorID, localPath, func(u *models.User, url string) { u.CoverImage = url })
}

func (s *Service) replaceImage(ctx context.Context, actorID, localPath string, set func(*models.User, string)) (models.User, error) {
	sctx, cancel := s.bound(ctx)
	user, err := s.actor(sctx, actorID)
	cancel()
	if err != nil {
		return models.User{}, err
	}
	ref, err := s.upload(ctx, localPath)
	if err != nil {
		return models.User{}, err
	}

	set(&user, ref.URL)
	user.UpdatedAt = s.now()
	sctx, cancel = s.bound(ctx)
	defer cancel()
	if err := s.store.Users().Update(sctx, user); err != nil {
		s.discard(ctx, ref)
		return models.User{}, repositories.Classify(err, "user")
	}
	return user, nil
}

// actor loads the acting user. Anonymous callers are Forbidden.
func (s *Service) actor(ctx context.Context, actorID string) (models.User, error) {
	if actorID == "" {
		return models.User{}, errSignIn
	}
	user, err := s.store.Users().FindByID(ctx, actorID)
	if err != nil {
		return models.User{}, repositories.Classify(err, "user")
	}
	return user, nil
}

var errSignIn = apperr.New(apperr.Forbidden, "sign in required")

func (s *Service) hashCost() int {
	if s.bcryptCost > 0 {
		return s.bcryptCost
	}
	return bcrypt.DefaultCost
}
