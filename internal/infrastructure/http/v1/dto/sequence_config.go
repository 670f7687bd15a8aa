package dto

import (
	"time"

	"sequencer/internal/core/sequence"
)

// ConfigRequest is the body of PUT /sequence-configs/:typeCode.
type ConfigRequest struct {
	Format       string `json:"format"`
	StartMonth   int    `json:"startMonth"`
	RegisterDate string `json:"registerDate"`
}

// ToDomain converts the request.
func (r ConfigRequest) ToDomain(tenantCode, typeCode string, loc *time.Location) (sequence.Config, error) {
	registerDate, err := ParseDate("registerDate", r.RegisterDate, loc)
	if err != nil {
		return sequence.Config{}, err
	}
	return sequence.Config{
		TenantCode:   tenantCode,
		TypeCode:     typeCode,
		Format:       r.Format,
		StartMonth:   r.StartMonth,
		RegisterDate: registerDate,
	}, nil
}

// ConfigResponse is a stored per-type configuration.
type ConfigResponse struct {
	TypeCode     string     `json:"typeCode"`
	Format       string     `json:"format"`
	StartMonth   int        `json:"startMonth"`
	RegisterDate *time.Time `json:"registerDate,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// FromConfig converts a domain config.
func FromConfig(c *sequence.Config) ConfigResponse {
	return ConfigResponse{
		TypeCode:     c.TypeCode,
		Format:       c.Format,
		StartMonth:   c.StartMonth,
		RegisterDate: c.RegisterDate,
		UpdatedAt:    c.UpdatedAt,
	}
}

// FromConfigs converts a list of configs.
func FromConfigs(list []sequence.Config) []ConfigResponse {
	out := make([]ConfigResponse, 0, len(list))
	for i := range list {
		out = append(out, FromConfig(&list[i]))
	}
	return out
}
