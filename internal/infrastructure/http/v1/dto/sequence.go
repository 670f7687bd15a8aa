package dto

import (
	"time"

	"sequencer/internal/core/apperror"
	"sequencer/internal/core/sequence"
	"sequencer/pkg/numerator"
)

// --- Requests ---

// ParamsRequest carries the code values a format may reference.
type ParamsRequest struct {
	Code1 string `json:"code1"`
	Code2 string `json:"code2"`
	Code3 string `json:"code3"`
	Code4 string `json:"code4"`
	Code5 string `json:"code5"`
}

// GenerateRequest is the body of POST /sequences.
type GenerateRequest struct {
	TypeCode string        `json:"typeCode"`
	RotateBy string        `json:"rotateBy"`
	Date     string        `json:"date"`
	Params   ParamsRequest `json:"params"`
	Prefix   string        `json:"prefix"`
	Postfix  string        `json:"postfix"`
}

// ToDomain converts the request for tenantCode. Dates without a time part
// are read in loc.
func (r GenerateRequest) ToDomain(tenantCode string, loc *time.Location) (sequence.GenerateRequest, error) {
	rotateBy, err := numerator.ParseRotateBy(r.RotateBy)
	if err != nil {
		return sequence.GenerateRequest{}, apperror.NewInvalidField("rotateBy", err.Error()).
			WithDetail("allowed", numerator.RotateValues())
	}

	date, err := ParseDate("date", r.Date, loc)
	if err != nil {
		return sequence.GenerateRequest{}, err
	}

	return sequence.GenerateRequest{
		TenantCode: tenantCode,
		TypeCode:   r.TypeCode,
		RotateBy:   rotateBy,
		Date:       date,
		Params: sequence.Params{
			Code1: r.Params.Code1,
			Code2: r.Params.Code2,
			Code3: r.Params.Code3,
			Code4: r.Params.Code4,
			Code5: r.Params.Code5,
		},
		Prefix:  r.Prefix,
		Postfix: r.Postfix,
	}, nil
}

// GenerateWithSettingRequest is the body of POST /sequences/with-setting.
type GenerateWithSettingRequest struct {
	GenerateRequest
	Format       string `json:"format"`
	StartMonth   int    `json:"startMonth"`
	RegisterDate string `json:"registerDate"`
}

// Setting extracts the per-call setting.
func (r GenerateWithSettingRequest) Setting(loc *time.Location) (sequence.Setting, error) {
	registerDate, err := ParseDate("registerDate", r.RegisterDate, loc)
	if err != nil {
		return sequence.Setting{}, err
	}
	return sequence.Setting{
		Format:       r.Format,
		StartMonth:   r.StartMonth,
		RegisterDate: registerDate,
	}, nil
}

// CurrentQuery is the query of GET /sequences/current.
type CurrentQuery struct {
	TypeCode    string `form:"typeCode"`
	RotateValue string `form:"rotateValue"`
}

// --- Responses ---

// ResultResponse is one allocated number.
type ResultResponse struct {
	ID          string    `json:"id"`
	No          int64     `json:"no"`
	FormattedNo string    `json:"formattedNo"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// FromResult converts a domain result.
func FromResult(r *sequence.Result) ResultResponse {
	return ResultResponse{
		ID:          r.ID,
		No:          r.No,
		FormattedNo: r.FormattedNo,
		IssuedAt:    r.IssuedAt,
	}
}

// CounterResponse is the stored state of one counter.
type CounterResponse struct {
	ID          string    `json:"id"`
	TenantCode  string    `json:"tenantCode"`
	TypeCode    string    `json:"typeCode"`
	RotateValue string    `json:"rotateValue"`
	RotateBy    string    `json:"rotateBy"`
	No          int64     `json:"no"`
	RequestID   string    `json:"requestId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy"`
	CreatedIP   string    `json:"createdIp,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
	UpdatedBy   string    `json:"updatedBy"`
	UpdatedIP   string    `json:"updatedIp,omitempty"`
}

// FromCounter converts a domain counter.
func FromCounter(c *sequence.Counter) CounterResponse {
	return CounterResponse{
		ID:          c.Key().ID(),
		TenantCode:  c.TenantCode,
		TypeCode:    c.TypeCode,
		RotateValue: c.RotateValue,
		RotateBy:    c.RotateBy,
		No:          c.Count,
		RequestID:   c.RequestID,
		CreatedAt:   c.CreatedAt,
		CreatedBy:   c.CreatedBy,
		CreatedIP:   c.CreatedIP,
		UpdatedAt:   c.UpdatedAt,
		UpdatedBy:   c.UpdatedBy,
		UpdatedIP:   c.UpdatedIP,
	}
}
