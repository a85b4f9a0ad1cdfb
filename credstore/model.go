package credstore

// Credential is the access/refresh token pair issued by the backend.
// Both fields are present together or the credential is absent; a pair with
// only one token is invalid and treated as absent everywhere.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Present reports whether both tokens are set.
func (c Credential) Present() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

// Identity is the last backend-confirmed user record. It is refreshed when the
// backend confirms identity (bootstrap, login, register) but not on token
// renewal.
type Identity struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Present reports whether the identity carries a confirmed user ID.
func (i Identity) Present() bool {
	return i.ID != ""
}
