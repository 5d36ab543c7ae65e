package admin

import (
	"context"
	"fmt"

	"tradocs/models"
	"tradocs/services/daterange"
)

func (a *DefaultAdminService) Overview(ctx context.Context, r daterange.Range) (*Overview, error) {
	stats, err := a.Finance.StatsCards(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	counts, err := a.Profiles.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	users := make(map[string]int64, len(models.Roles))
	for _, role := range models.Roles {
		users[role] = 0
	}
	var total int64
	for role, n := range counts {
		users[role] = n
		total += n
	}
	return &Overview{Stats: stats, Users: users, TotalUsers: total}, nil
}
