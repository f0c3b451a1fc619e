package packets

// body for logging in
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type SessionResponse struct {
	Subject   string `json:"subject"`
	ExpiresAt string `json:"expires_at,omitempty"`
}
