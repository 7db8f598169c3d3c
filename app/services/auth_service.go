package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/app/jobs"
	"github.com/shashiranjanraj/farmlink/app/models"
	"github.com/shashiranjanraj/farmlink/app/repositories"
	"github.com/shashiranjanraj/farmlink/app/requests"
	"github.com/shashiranjanraj/farmlink/pkg/apperr"
	"github.com/shashiranjanraj/farmlink/pkg/auth"
	"github.com/shashiranjanraj/farmlink/pkg/logger"
)

// Messages shown by the auth flows.
const (
	MsgUsernameTaken = "That username is already taken. Please choose another."
	MsgEmailTaken    = "That email is already registered. Please use a different email."
	MsgLoginFailed   = "Login failed. Check email and password."
	MsgResetSent     = "If that email is registered, a reset link has been sent."
	MsgInvalidToken  = "That is an invalid or expired token."
	MsgPasswordLong  = "The password must not exceed 72 bytes."
)

// AuthService registers users, checks credentials and resets passwords.
type AuthService struct {
	db     *gorm.DB
	resets *auth.Signer
	queue  Dispatcher
	events Events
	// baseURL prefixes links sent by mail.
	baseURL string
}

func NewAuthService(db *gorm.DB, resets *auth.Signer, queue Dispatcher, events Events, baseURL string) *AuthService {
	return &AuthService{db: db, resets: resets, queue: queue, events: eventsOrNop(events), baseURL: baseURL}
}

// Register creates the user and the profile of the chosen role in one
// transaction. Taken usernames and emails are field errors and nothing is
// written.
func (s *AuthService) Register(ctx context.Context, req requests.RegisterRequest) (*models.User, error) {
	req.Normalize()
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, apperr.Field("role", "The selected role is invalid.")
	}
	profile := req.Profile()

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  hash,
		Role:      role,
		County:    req.County,
		SubCounty: req.SubCounty,
		Town:      req.Town,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repositories.NewSet(tx)

		fields := map[string]string{}
		taken, err := repos.Users.UsernameTaken(ctx, user.Username)
		if err != nil {
			return err
		}
		if taken {
			fields["username"] = MsgUsernameTaken
		}
		taken, err = repos.Users.EmailTaken(ctx, user.Email)
		if err != nil {
			return err
		}
		if taken {
			fields["email"] = MsgEmailTaken
		}
		if len(fields) > 0 {
			return apperr.Validation(fields)
		}

		if err := repos.Users.Create(ctx, user); err != nil {
			return err
		}
		models.Attach(profile, user.ID)
		return repos.Profiles.Create(ctx, profile)
	})
	if err != nil {
		return nil, classify("register user", err)
	}

	switch p := profile.(type) {
	case *models.Farmer:
		user.Farmer = p
	case *models.Vendor:
		user.Vendor = p
	}

	logger.WithCtx(ctx).Info("user registered", "user_id", user.ID, "role", user.Role)
	s.events.Fire(ctx, EventUserRegistered, user)
	return user, nil
}

// Login checks the credentials. An unknown email and a wrong password
// fail identically.
func (s *AuthService) Login(ctx context.Context, req requests.LoginRequest) (*models.User, error) {
	repos := repositories.NewSet(s.db)
	user, err := repos.Users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, classify("find user by email", err)
	}
	var ok bool
	if user == nil {
		ok = auth.CheckNoUser(req.Password)
	} else {
		ok = auth.CheckPassword(user.Password, req.Password)
	}
	if !ok {
		logger.WithCtx(ctx).Warn("login failed", "email", req.Email)
		return nil, apperr.Unauthenticated(MsgLoginFailed)
	}

	logger.WithCtx(ctx).Info("user logged in", "user_id", user.ID)
	return user, nil
}

// RequestReset queues a reset link when email belongs to a user. The
// caller cannot tell whether it did.
func (s *AuthService) RequestReset(ctx context.Context, req requests.ResetRequest) error {
	repos := repositories.NewSet(s.db)
	user, err := repos.Users.FindByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return classify("find user by email", err)
	}

	token, err := s.resets.Issue(user.ID)
	if err != nil {
		return classify("issue reset token", err)
	}
	job := jobs.NewSendMail([]string{user.Email}, "Password Reset Request",
		fmt.Sprintf("To reset your password, visit the following link:\n%s/reset_password/%s\n\n"+
			"If you did not make this request then simply ignore this email and no changes will be made.",
			s.baseURL, token))
	if err := s.queue.Dispatch(ctx, job); err != nil {
		return classify("queue reset mail", err)
	}
	logger.WithCtx(ctx).Info("password reset requested", "user_id", user.ID)
	return nil
}

// ResetPassword replaces the password of the user named by token.
func (s *AuthService) ResetPassword(ctx context.Context, token string, req requests.ResetPasswordRequest) error {
	userID, ok := s.resets.Verify(token)
	if !ok {
		return apperr.Field("token", MsgInvalidToken)
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return err
	}
	err = repositories.NewUserRepository(s.db).UpdatePassword(ctx, userID, hash)
	if err != nil {
		return notFound("update password", err, apperr.Field("token", MsgInvalidToken))
	}
	logger.WithCtx(ctx).Info("password reset", "user_id", userID)
	return nil
}

// hashPassword hashes plain; bcrypt's 72-byte limit is a field error.
func hashPassword(plain string) (string, error) {
	hash, err := auth.HashPassword(plain)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", apperr.Field("password", MsgPasswordLong)
	}
	if err != nil {
		return "", classify("hash password", err)
	}
	return hash, nil
}
