package domain

// Session is the client-side authentication state.
type Session struct {
	User      *User
	Token     string
	IsLoading bool
	Error     string
}

// IsAuthenticated reports whether both a token and a user are present.
func (s Session) IsAuthenticated() bool {
	return s.Token != "" && s.User != nil
}

// AuthResult is the backend's answer to a successful credential exchange.
type AuthResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
	User         User   `json:"user"`
}

// TelegramAssertion is the identity payload produced by a Telegram client and
// consumed once by the login exchange. It is never persisted.
type TelegramAssertion struct {
	ID        string `json:"tg_id"`
	FirstName string `json:"tg_first_name"`
	LastName  string `json:"tg_last_name,omitempty"`
	Username  string `json:"tg_username"`
	PhotoURL  string `json:"tg_photo_url"`
	AuthDate  string `json:"tg_auth_date"`
	Hash      string `json:"tg_hash"`
	WebApp    bool   `json:"tg_webapp,omitempty"`
	InitData  string `json:"tg_init_data,omitempty"`
}
