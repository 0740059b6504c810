package model

// User is the identity returned by the remote service.
type User struct {
	ID    string `json:"_id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// Session is the current authentication state.
// User is only set once the token has been validated by an identity fetch.
type Session struct {
	Token string
	User  *User
}

// Active reports whether remote calls may be issued.
func (s Session) Active() bool {
	return s.Token != "" && s.User != nil
}

// UserID returns the owner id or an empty string when logged out.
func (s Session) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Registration is the sign-up form sent to the remote service.
type Registration struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}
