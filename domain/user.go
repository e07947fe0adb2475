package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessRegister       = "user registered successfully"
	MessageSuccessLogin          = "login successful"
	MessageSuccessGetMe          = "user profile retrieved successfully"
	MessageSuccessSearchPatients = "patients retrieved successfully"

	MessageFailedRegister       = "failed to register user"
	MessageFailedLogin          = "failed to login"
	MessageFailedGetMe          = "failed to retrieve user profile"
	MessageFailedSearchPatients = "failed to retrieve patients"

	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrCredentialsInvalid = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidSearchType  = errors.New("invalid search type")
)

type (
	RegisterRequest struct {
		Email       string `json:"email" validate:"required,email"`
		Password    string `json:"password" validate:"required,min=8"`
		Name        string `json:"name" validate:"required"`
		PhoneNumber string `json:"phone_number" validate:"omitempty"`
		Role        string `json:"role" validate:"required,oneof=patient pharmacist doctor"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}

	UserResponse struct {
		ID          string    `json:"id"`
		Email       string    `json:"email"`
		Name        string    `json:"name"`
		PhoneNumber string    `json:"phone_number,omitempty"`
		Role        string    `json:"role"`
		CreatedAt   time.Time `json:"created_at"`
	}

	SearchPatientsRequest struct {
		Query      string `json:"query" validate:"required"`
		SearchType string `json:"search_type" validate:"required,oneof=name email phone"`
	}
)
