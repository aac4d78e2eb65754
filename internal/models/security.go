package models

import "time"

// AccountSecurity holds the verification factors a user has enrolled.
type AccountSecurity struct {
	UserID       uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CodeHash     *string   `gorm:"size:72" json:"-"`
	OTPEnabled   bool      `gorm:"not null;default:false" json:"otp_enabled"`
	OTPSecretRef *string   `gorm:"size:128" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (AccountSecurity) TableName() string {
	return "account_security"
}

// Capabilities reports which verification methods are usable.
type Capabilities struct {
	HasOTP  bool `json:"has_otp"`
	HasCode bool `json:"has_code"`
}

func (c Capabilities) Any() bool {
	return c.HasOTP || c.HasCode
}

func (s *AccountSecurity) Capabilities() Capabilities {
	if s == nil {
		return Capabilities{}
	}
	return Capabilities{HasOTP: s.OTPEnabled, HasCode: s.CodeHash != nil && *s.CodeHash != ""}
}
