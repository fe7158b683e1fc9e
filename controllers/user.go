package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pfw-commerce/models"
	"pfw-commerce/repository"
	"pfw-commerce/utils"

	"github.com/dgrijalva/jwt-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserController handles user-related requests
type UserController struct {
	Users        repository.UserRepository
	EmailService *utils.EmailService
	Log          *logrus.Logger
}

// NewUserController creates a new UserController with EmailService
func NewUserController(users repository.UserRepository, emailService *utils.EmailService, log *logrus.Logger) *UserController {
	return &UserController{
		Users:        users,
		EmailService: emailService,
		Log:          log,
	}
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := uc.Users.CountByEmail(ctx, user.Email)
	if err != nil {
		uc.Log.Errorf("count users: %v", err)
		respondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	if count > 0 {
		respondError(w, http.StatusBadRequest, "User already exists")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error hashing password")
		return
	}
	user.Password = string(hashedPassword)
	user.Role = "user" // Default role
	user.IsVerified = false

	verificationToken, err := utils.GenerateJWT(user.Email, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error generating verification token")
		return
	}
	user.VerificationToken = verificationToken

	if err := uc.Users.Insert(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			respondError(w, http.StatusBadRequest, "User already exists")
			return
		}
		uc.Log.Errorf("insert user: %v", err)
		respondError(w, http.StatusInternalServerError, "Error creating user")
		return
	}

	if uc.EmailService != nil {
		go func(email, token string) {
			if err := uc.EmailService.SendVerificationEmail(email, token); err != nil {
				uc.Log.WithField("email", email).Warnf("verification email: %v", err)
			}
		}(user.Email, verificationToken)
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "User registered successfully. Please check your email to verify your account.",
	})
}

// VerifyEmail handles email verification
func (uc *UserController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "Verification token missing")
		return
	}

	claims := &utils.Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, utils.Keyfunc); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := uc.Users.FindByVerificationToken(ctx, token)
	if err != nil {
		respondError(w, http.StatusBadRequest, "User not found or already verified")
		return
	}

	if err := uc.Users.MarkVerified(ctx, user.ID); err != nil {
		uc.Log.Errorf("mark verified: %v", err)
		respondError(w, http.StatusInternalServerError, "Error updating user verification status")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified successfully. You can now log in.",
	})
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := uc.Users.FindByEmail(ctx, creds.Email)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !user.IsVerified {
		respondError(w, http.StatusUnauthorized, "Email not verified")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateJWT(user.Email, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error generating token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := currentUser(ctx, uc.Users, r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	user.Password = ""
	user.VerificationToken = ""
	respondJSON(w, http.StatusOK, user)
}
