package model

import (
	"unicode/utf8"

	"barista-web/pkg/core/account"
	"barista-web/pkg/core/registration/model"
)

// RegisterForm 注册表单（字段名与页面保持一致）
type RegisterForm struct {
	Username        string `form:"username"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
	Token           string `form:"g-recaptcha-response"`
}

func (f RegisterForm) Domain() model.Form {
	return model.Form{
		Username:        f.Username,
		Password:        f.Password,
		ConfirmPassword: f.ConfirmPassword,
		Token:           f.Token,
	}
}

// ValidUTF8 reports whether every field is valid UTF-8.
func (f RegisterForm) ValidUTF8() bool {
	return utf8.ValidString(f.Username) && utf8.ValidString(f.Password) &&
		utf8.ValidString(f.ConfirmPassword) && utf8.ValidString(f.Token)
}

// RegisterPage is the data the register template renders.
type RegisterPage struct {
	Error            string
	ChallengeEnabled bool
	SiteKey          string
	Action           string
}

type AccountPage struct {
	Username string
}

// HomePage lists the blogs on the landing page.
type HomePage struct {
	Blogs []account.Blog
}

type BlogPage struct {
	Blog account.Blog
}
