package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/secdesk/backend/internal/middleware"
	"github.com/secdesk/backend/internal/store"
)

// AccountController serves the caller's own profile and the account picker.
// Accounts only ever mutate their own profile.
type AccountController struct {
	store store.Store
}

func NewAccountController(s store.Store) *AccountController {
	return &AccountController{store: s}
}

type UpdateAccountRequest struct {
	FullName  *string `json:"fullName"`
	AvatarURL *string `json:"avatarUrl"`
}

// AccountOption is one entry of the assignee picker.
type AccountOption struct {
	ID       uint   `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (ac *AccountController) GetCurrentAccount(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, err, "User not authenticated")
		return
	}

	user, err := ac.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to fetch account")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

func (ac *AccountController) UpdateCurrentAccount(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, err, "User not authenticated")
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request data", err)
		return
	}

	fields := map[string]interface{}{}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			respondBadRequest(c, "Full name must not be empty", nil)
			return
		}
		fields["full_name"] = name
	}
	if req.AvatarURL != nil {
		// An empty string clears the avatar.
		if url := strings.TrimSpace(*req.AvatarURL); url != "" {
			fields["avatar_url"] = &url
		} else {
			fields["avatar_url"] = nil
		}
	}
	if len(fields) == 0 {
		respondBadRequest(c, "Nothing to update", nil)
		return
	}

	ctx := c.Request.Context()
	if err := ac.store.UpdateUser(ctx, userID, fields); err != nil {
		respondError(c, err, "Failed to update account")
		return
	}

	user, err := ac.store.GetUser(ctx, userID)
	if err != nil {
		respondError(c, err, "Failed to fetch account")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// ListAccounts returns id, name and email of every account, optionally
// narrowed by a case-insensitive search over name and email.
func (ac *AccountController) ListAccounts(c *gin.Context) {
	users, err := ac.store.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch accounts")
		return
	}

	search := strings.ToLower(strings.TrimSpace(c.Query("search")))
	options := make([]AccountOption, 0, len(users))
	for _, u := range users {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.FullName), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		options = append(options, AccountOption{ID: u.ID, FullName: u.FullName, Email: u.Email})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    options,
	})
}
