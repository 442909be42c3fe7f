package controllers

import (
	"net/http"

	"go.uber.org/zap"

	"go-grocery/models"
	"go-grocery/services"
)

// UserController handles registration, login and profile requests
type UserController struct {
	users  *services.UserService
	logger *zap.Logger
}

// NewUserController creates a new UserController
func NewUserController(users *services.UserService, logger *zap.Logger) *UserController {
	return &UserController{users: users, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

type profileRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=50"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	session, err := uc.users.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	}, models.RoleUser)
	if err != nil {
		writeError(uc.logger, w, r, err)
		return
	}
	uc.logger.Info("user registered", zap.String("user_id", session.User.ID.Hex()))
	writeJSON(w, http.StatusCreated, session)
}

// Login handles user login and returns a JWT token
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	session, err := uc.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(uc.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// GetProfile retrieves the profile of the logged-in user
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	profile, err := uc.users.Profile(r.Context(), user.UserID)
	if err != nil {
		writeError(uc.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile edits the logged-in user's profile and returns a new token
func (uc *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if !decode(w, r, &req) {
		return
	}
	session, err := uc.users.UpdateProfile(r.Context(), user.UserID, services.ProfileInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeError(uc.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
