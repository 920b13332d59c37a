package api

import "time"

// --- Banner Pages ---

const (
	PageTop    = "bannerTop"
	PageBottom = "bannerBottom"
)

// --- Banner ---

// Banner is a promotional banner as the backend stores it.
type Banner struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Image     string    `json:"image"`
	URL       string    `json:"url"`
	Page      string    `json:"page,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// UpdateBannerInput is the full editable payload sent on update.
type UpdateBannerInput struct {
	Title    string `json:"title"`
	Image    string `json:"image"`
	URL      string `json:"url"`
	Subtitle string `json:"subtitle"`
}

// UpdateBannerResult is the server reply to an update.
type UpdateBannerResult struct {
	Message string  `json:"message,omitempty"`
	Banner  *Banner `json:"banner,omitempty"`
}

type bannerListResponse struct {
	Message string   `json:"message,omitempty"`
	Banners []Banner `json:"banners"`
	Data    []Banner `json:"data,omitempty"`
}

type bannerResponse struct {
	Message string  `json:"message,omitempty"`
	Banner  *Banner `json:"banner"`
}

// --- Auth ---

// LoginInput defines the credentials for logging in.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse contains the session information after successful login.
type LoginResponse struct {
	Message string `json:"message,omitempty"`
	Token   string `json:"token"`
	User    struct {
		ID    string `json:"_id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

// QueryParams is a map of URL query parameters.
type QueryParams map[string]string
