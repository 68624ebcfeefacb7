package movement

import (
	"strconv"

	"github.com/amirasaad/gastos/pkg/domain/movement"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CreateMovementRequest records an income or a withdrawal. Attachment is an
// optional base64 data URI of a PDF or image.
type CreateMovementRequest struct {
	AccountID      string `json:"account_id" validate:"required,uuid"`
	Type           string `json:"type" validate:"required,oneof=ingreso retirada"`
	Amount         string `json:"amount" validate:"required"`
	Date           string `json:"date"`
	Note           string `json:"note" validate:"max=255"`
	Attachment     string `json:"attachment"`
	AttachmentName string `json:"attachment_name" validate:"max=255"`
}

// UpdateMovementRequest edits a movement. Absent fields are left alone and
// the account cannot change.
type UpdateMovementRequest struct {
	Type             *string `json:"type" validate:"omitempty,oneof=ingreso retirada"`
	Amount           *string `json:"amount"`
	Date             *string `json:"date"`
	Note             *string `json:"note" validate:"omitempty,max=255"`
	Attachment       string  `json:"attachment"`
	AttachmentName   string  `json:"attachment_name" validate:"max=255"`
	RemoveAttachment bool    `json:"remove_attachment"`
}

func (r *CreateMovementRequest) command() (dto.MovementCommand, error) {
	cmd := dto.MovementCommand{
		AccountID: uuid.MustParse(r.AccountID),
		Type:      movement.Type(r.Type),
		Note:      r.Note,
	}
	var err error
	if cmd.Amount, err = common.ParseAmount("amount", r.Amount); err != nil {
		return cmd, err
	}
	if r.Date != "" {
		if cmd.Date, err = common.ParseTime("date", r.Date); err != nil {
			return cmd, err
		}
	}
	if r.Attachment != "" {
		if cmd.Attachment, err = common.DecodeUpload(r.Attachment, r.AttachmentName); err != nil {
			return cmd, err
		}
	}
	return cmd, nil
}

func (r *UpdateMovementRequest) command() (dto.MovementUpdateCommand, error) {
	cmd := dto.MovementUpdateCommand{Note: r.Note, RemoveAttachment: r.RemoveAttachment}
	if r.Type != nil {
		t := movement.Type(*r.Type)
		cmd.Type = &t
	}
	var err error
	if cmd.Amount, err = common.OptionalAmount("amount", r.Amount); err != nil {
		return cmd, err
	}
	if r.Date != nil {
		d, err := common.ParseTime("date", *r.Date)
		if err != nil {
			return cmd, err
		}
		cmd.Date = &d
	}
	if r.Attachment != "" {
		if cmd.Attachment, err = common.DecodeUpload(r.Attachment, r.AttachmentName); err != nil {
			return cmd, err
		}
	}
	return cmd, nil
}

// ParseFilter reads a movement filter from the query string: account_id,
// type, from, to, min, max, sort (fecha or cantidad), order (asc or desc),
// limit and offset.
func ParseFilter(c *fiber.Ctx) (dto.MovementFilter, error) {
	var f dto.MovementFilter
	var err error
	account := c.Query("account_id")
	if f.AccountID, err = common.OptionalUUID("account_id", &account); err != nil {
		return f, err
	}
	f.Type = movement.Type(c.Query("type"))
	if f.From, err = common.QueryTime(c, "from"); err != nil {
		return f, err
	}
	if f.To, err = common.QueryTime(c, "to"); err != nil {
		return f, err
	}
	if v := c.Query("min"); v != "" {
		if f.MinAmount, err = common.OptionalAmount("min", &v); err != nil {
			return f, err
		}
	}
	if v := c.Query("max"); v != "" {
		if f.MaxAmount, err = common.OptionalAmount("max", &v); err != nil {
			return f, err
		}
	}
	switch sort := dto.MovementSort(c.Query("sort")); sort {
	case "", dto.SortByDate, dto.SortByAmount:
		f.SortBy = sort
	default:
		return f, fiber.NewError(fiber.StatusBadRequest, "invalid sort: expected fecha or cantidad")
	}
	switch c.Query("order") {
	case "", "desc":
	case "asc":
		f.Ascending = true
	default:
		return f, fiber.NewError(fiber.StatusBadRequest, "invalid order: expected asc or desc")
	}
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(c, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

func queryInt(c *fiber.Ctx, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name+": must be a non-negative integer")
	}
	return n, nil
}
