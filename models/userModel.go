package models

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// FlexID is an identifier the backend sends either as a JSON number or as
// a JSON string.
type FlexID string

func (id *FlexID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FlexID(n.String())
	return nil
}

type UserSession struct {
	ID       FlexID `json:"id" validate:"required"`
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Email    string `json:"email" validate:"required"`
	IsOnline bool   `json:"isOnline"`
	IsAdmin  bool   `json:"isAdmin,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

type LoginData struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterData struct {
	Name       string `json:"name" binding:"required" validate:"required"`
	Lastname   string `json:"lastname" binding:"required" validate:"required"`
	Email      string `json:"email" binding:"required,email" validate:"required,email"`
	Password   string `json:"password" binding:"required" validate:"required"`
	Repassword string `json:"repassword" binding:"required" validate:"required,eqfield=Password"`
	Direction  string `json:"direction" binding:"required" validate:"required"`
	Postalcode string `json:"postalcode" binding:"required" validate:"required"`
}

// UserBalance is one row of the admin balance table.
type UserBalance struct {
	Email string          `json:"email"`
	Saldo decimal.Decimal `json:"saldo"`
}
