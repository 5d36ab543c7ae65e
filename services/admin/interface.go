package admin

import (
	"context"

	"tradocs/models"
	"tradocs/services/daterange"
	"tradocs/services/finance"
)

type AdminService interface {
	Overview(ctx context.Context, r daterange.Range) (*Overview, error)
	GetLegalSections() []models.LegalSection
	GetLegalSectionsFor(role string) []models.LegalSection
}

// StatsProvider supplies the platform dashboard cards.
type StatsProvider interface {
	StatsCards(ctx context.Context, r daterange.Range) (*finance.StatsCards, error)
}

// RoleCounter counts profiles per role.
type RoleCounter interface {
	CountByRole(ctx context.Context) (map[string]int64, error)
}

// DefaultAdminService is the production implementation.
type DefaultAdminService struct {
	Finance  StatsProvider
	Profiles RoleCounter
}

// Overview is the admin dashboard: finance cards plus the user base.
type Overview struct {
	Stats      *finance.StatsCards `json:"stats"`
	Users      map[string]int64    `json:"users"`
	TotalUsers int64               `json:"totalUsers"`
}
