package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	intconfig "backend/internal/config"
	"backend/internal/domain"
	"backend/internal/domain/models"
	"backend/internal/repositories"
	"backend/internal/utils"
)

type AuthHandler struct {
	Env intconfig.Env
	DB  *sql.DB
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/login
func (h AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	repo := repositories.UserRepository{DB: h.DB}
	user, found, err := repo.GetByEmail(utils.TrimOrEmpty(req.Email))
	if err != nil {
		RespondDomainError(c, domain.InternalError{Msg: "user lookup failed", Err: err})
		return
	}
	if !found {
		RespondError(c, http.StatusUnauthorized, "wrong email or password", nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		RespondError(c, http.StatusUnauthorized, "wrong email or password", nil)
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     time.Now().Add(h.Env.JWTTTL).Unix(),
	})
	tokenString, err := token.SignedString([]byte(h.Env.JWTSecret))
	if err != nil {
		RespondDomainError(c, domain.InternalError{Msg: "could not sign token", Err: err})
		return
	}

	Respond(c, http.StatusOK, gin.H{
		"token": tokenString,
		"user":  user.ToPublic(),
	}, "login successful")
}

type registerRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
}

// POST /api/auth/register
func (h AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	repo := repositories.UserRepository{DB: h.DB}
	exists, err := repo.EmailExists(utils.TrimOrEmpty(req.Email))
	if err != nil {
		RespondDomainError(c, domain.InternalError{Msg: "user lookup failed", Err: err})
		return
	}
	if exists {
		RespondError(c, http.StatusBadRequest, "email is already registered", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		RespondDomainError(c, domain.InternalError{Msg: "could not hash password", Err: err})
		return
	}

	user := models.User{
		FirstName:    utils.TrimOrEmpty(req.FirstName),
		LastName:     utils.TrimOrEmpty(req.LastName),
		Email:        utils.TrimOrEmpty(req.Email),
		Phone:        utils.TrimOrEmpty(req.Phone),
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}
	if err := repo.Create(&user); err != nil {
		RespondDomainError(c, domain.InternalError{Msg: "could not save user", Err: err})
		return
	}

	Respond(c, http.StatusCreated, gin.H{"user": user.ToPublic()}, "registration successful")
}
