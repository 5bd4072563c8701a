// Package seed loads initial accounts from a JSON file.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/secdesk/backend/internal/apperr"
	"github.com/secdesk/backend/internal/logger"
	"github.com/secdesk/backend/internal/models"
	"github.com/secdesk/backend/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// UserData represents the structure of users in the JSON file
type UserData struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// File represents the structure of the JSON file
type File struct {
	Users []UserData `json:"users"`
}

func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &f, nil
}

// Result counts what Users did.
type Result struct {
	Created int
	Skipped int
}

// Users creates every account that does not exist yet. Existing accounts are
// left untouched. A missing role falls back to models.DefaultRole.
func Users(ctx context.Context, s store.Store, users []UserData) (Result, error) {
	var res Result
	for _, u := range users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" || u.Password == "" {
			return res, apperr.Invalid("email", "seed entries need an email and a password")
		}

		_, err := s.GetUserByEmail(ctx, email)
		if err == nil {
			res.Skipped++
			logger.Debug("User already exists", map[string]interface{}{"email": email})
			continue
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return res, err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return res, fmt.Errorf("failed to hash password for %s: %w", email, err)
		}

		role := strings.TrimSpace(u.Role)
		if role == "" {
			role = models.DefaultRole
		}
		fullName := strings.TrimSpace(u.FullName)
		if fullName == "" {
			fullName = email
		}

		user := models.User{Email: email, Password: string(hashed), FullName: fullName, Role: role}
		if err := s.CreateUser(ctx, &user); err != nil {
			return res, err
		}
		res.Created++
		logger.Info("Created user", map[string]interface{}{"email": email, "role": role})
	}
	return res, nil
}
