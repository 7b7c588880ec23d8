package model

// RegistrationRequest is the JSON body sent to the registration endpoint.
// It is built only after the password and its confirmation matched.
type RegistrationRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

// Form is what the user typed plus the challenge token, read once per submission.
type Form struct {
	Username        string
	Password        string
	ConfirmPassword string
	Token           string
}

// PasswordsMatch reports whether the two password entries are byte-equal.
func (f Form) PasswordsMatch() bool {
	return f.Password == f.ConfirmPassword
}

// Request builds the outbound request. ok is false when the passwords differ.
func (f Form) Request() (req RegistrationRequest, ok bool) {
	if !f.PasswordsMatch() {
		return RegistrationRequest{}, false
	}
	return RegistrationRequest{
		Username: f.Username,
		Password: f.Password,
		Token:    f.Token,
	}, true
}

// LoginRequest is the body of the login call made after a successful registration.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
