package account

import (
	"github.com/amirasaad/gastos/pkg/domain/account"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/money"
	"github.com/amirasaad/gastos/webapi/common"
)

// CreateAccountRequest represents the request body for opening an account.
// Amounts are decimal strings; a comma is accepted as decimal separator.
type CreateAccountRequest struct {
	Name           string  `json:"name" validate:"required,max=100"`
	Kind           string  `json:"kind" validate:"required,oneof=efectivo bancaria"`
	Currency       string  `json:"currency" validate:"omitempty,len=3,uppercase,alpha"`
	Color          string  `json:"color" validate:"omitempty,hexcolor"`
	Description    string  `json:"description" validate:"max=500"`
	TagID          *string `json:"tag_id" validate:"omitempty,uuid"`
	Goal           *string `json:"goal"`
	OpeningBalance string  `json:"opening_balance"`
}

// UpdateAccountRequest edits an account. Absent fields are left alone.
type UpdateAccountRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Kind        *string `json:"kind" validate:"omitempty,oneof=efectivo bancaria"`
	Currency    *string `json:"currency" validate:"omitempty,len=3,uppercase,alpha"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	TagID       *string `json:"tag_id" validate:"omitempty,uuid"`
	ClearTag    bool    `json:"clear_tag"`
	Goal        *string `json:"goal"`
	ClearGoal   bool    `json:"clear_goal"`
}

func (r *CreateAccountRequest) command() (dto.AccountCommand, error) {
	cmd := dto.AccountCommand{
		Name:        r.Name,
		Kind:        account.Kind(r.Kind),
		Currency:    money.Code(r.Currency),
		Color:       r.Color,
		Description: r.Description,
	}
	var err error
	if cmd.TagID, err = common.OptionalUUID("tag_id", r.TagID); err != nil {
		return cmd, err
	}
	if cmd.Goal, err = common.OptionalAmount("goal", r.Goal); err != nil {
		return cmd, err
	}
	if r.OpeningBalance != "" {
		if cmd.OpeningBalance, err = common.ParseAmount("opening_balance", r.OpeningBalance); err != nil {
			return cmd, err
		}
	}
	return cmd, nil
}

func (r *UpdateAccountRequest) update() (dto.AccountUpdate, error) {
	u := dto.AccountUpdate{
		Name:        r.Name,
		Color:       r.Color,
		Description: r.Description,
		ClearTag:    r.ClearTag,
		ClearGoal:   r.ClearGoal,
	}
	if r.Kind != nil {
		k := account.Kind(*r.Kind)
		u.Kind = &k
	}
	if r.Currency != nil {
		c := money.Code(*r.Currency)
		u.Currency = &c
	}
	var err error
	if u.TagID, err = common.OptionalUUID("tag_id", r.TagID); err != nil {
		return u, err
	}
	if u.Goal, err = common.OptionalAmount("goal", r.Goal); err != nil {
		return u, err
	}
	return u, nil
}
