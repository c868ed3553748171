package response

import (
	"time"

	"github.com/magabrotheeeer/banner-generator/internal/models"
)

// AccountView представление аккаунта для клиента, без хэша пароля и токенов.
type AccountView struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	FullName        string     `json:"full_name"`
	IsActive        bool       `json:"is_active"`
	IsPro           bool       `json:"is_pro"`
	Plan            string     `json:"plan"`
	SubscriptionRef *string    `json:"subscription_ref"`
	SocialLinked    bool       `json:"social_linked"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// NewAccountView строит представление аккаунта.
func NewAccountView(a *models.Account) AccountView {
	return AccountView{
		ID:              a.ID,
		Email:           a.Email,
		FullName:        a.FullName,
		IsActive:        a.IsActive,
		IsPro:           a.IsPro(),
		Plan:            string(a.Plan),
		SubscriptionRef: a.SubscriptionRef,
		SocialLinked:    a.SocialToken != nil,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
