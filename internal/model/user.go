// Package model はドメインモデルを定義する。
package model

import (
	"encoding/json"
	"time"
)

// Address は郵送先住所を表す。
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

// User はサービス利用ユーザーを表す。
// ローカル登録ユーザーはEmail/PasswordHashを持ち、
// Googleログインで作成されたユーザーはGoogleIDを持つ。
type User struct {
	ID           string     `json:"id"`
	FirstName    string     `json:"firstName,omitempty"`
	LastName     string     `json:"lastName,omitempty"`
	DisplayName  string     `json:"displayName,omitempty"`
	Email        string     `json:"email,omitempty"`
	PasswordHash string     `json:"-"`
	GoogleID     string     `json:"googleId,omitempty"`
	DateOfBirth  *time.Time `json:"-"`
	Address      *Address   `json:"address,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// DateOfBirthString はDateOfBirthをISO形式（YYYY-MM-DD）で返す。未設定の場合は空文字列。
func (u *User) DateOfBirthString() string {
	if u.DateOfBirth == nil {
		return ""
	}
	return u.DateOfBirth.Format(DateLayout)
}

// MarshalJSON は生年月日をISO日付文字列として出力する。
func (u User) MarshalJSON() ([]byte, error) {
	type userAlias User
	return json.Marshal(struct {
		userAlias
		DateOfBirth string `json:"dateOfBirth,omitempty"`
	}{
		userAlias:   userAlias(u),
		DateOfBirth: u.DateOfBirthString(),
	})
}

// DateLayout は生年月日のISO日付フォーマット。
const DateLayout = "2006-01-02"

// UserInput はユーザー作成・更新リクエストの入力値。
// 各フィールドは指定有無を保持し、部分更新で未指定フィールドを保持するために使う。
type UserInput struct {
	FirstName   Optional[string]
	LastName    Optional[string]
	DisplayName Optional[string]
	Email       Optional[string]
	Password    Optional[string]
	DateOfBirth Optional[time.Time]
	Address     Optional[Address]
}

// ApplyTo はパスワード以外の指定されたフィールドをuserに反映する。
// パスワードはハッシュ化が必要なため呼び出し側で扱う。
func (in UserInput) ApplyTo(user *User) {
	in.FirstName.Apply(&user.FirstName)
	in.LastName.Apply(&user.LastName)
	in.DisplayName.Apply(&user.DisplayName)
	in.Email.Apply(&user.Email)
	if in.DateOfBirth.Set {
		dob := in.DateOfBirth.Value
		user.DateOfBirth = &dob
	}
	if in.Address.Set {
		addr := in.Address.Value
		user.Address = &addr
	}
}

// GoogleProfile はGoogleから取得したプロフィール情報を表す。
type GoogleProfile struct {
	Subject     string
	DisplayName string
	GivenName   string
	FamilyName  string
	Email       string
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time

	// Refreshed はResolveで有効期限を延長した場合にtrueになる。保存はしない。
	Refreshed bool
}
