package admin

import (
	"context"
	"errors"
	"testing"

	"tradocs/database/repository/memory"
	"tradocs/models"
	"tradocs/services/daterange"
	"tradocs/services/finance"
)

type stubStats struct {
	err error
}

func (s stubStats) StatsCards(_ context.Context, r daterange.Range) (*finance.StatsCards, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &finance.StatsCards{Range: r, CompletedPayments: 3}, nil
}

func TestOverview(t *testing.T) {
	profiles := memory.NewProfiles(
		models.Profile{ID: "1", Email: "a@x.io", Role: models.RoleCustomer},
		models.Profile{ID: "2", Email: "b@x.io", Role: models.RoleCustomer},
		models.Profile{ID: "3", Email: "c@x.io", Role: models.RoleAdmin},
	)
	svc := &DefaultAdminService{Finance: stubStats{}, Profiles: profiles}

	ov, err := svc.Overview(context.Background(), daterange.Range{Preset: daterange.AllTime})
	if err != nil {
		t.Fatal(err)
	}
	if ov.TotalUsers != 3 || ov.Users[models.RoleCustomer] != 2 || ov.Users[models.RoleFinance] != 0 {
		t.Fatalf("unexpected users %+v", ov.Users)
	}
	if ov.Stats.CompletedPayments != 3 {
		t.Fatalf("stats not passed through: %+v", ov.Stats)
	}

	svc.Finance = stubStats{err: errors.New("boom")}
	if _, err := svc.Overview(context.Background(), daterange.Range{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestLegalSectionsFor(t *testing.T) {
	svc := &DefaultAdminService{}
	ids := func(sections []models.LegalSection) map[string]bool {
		out := map[string]bool{}
		for _, s := range sections {
			out[s.ID] = true
		}
		return out
	}

	customer := ids(svc.GetLegalSectionsFor(models.RoleCustomer))
	if !customer["tos"] || !customer["privacy"] || customer["certification"] {
		t.Fatalf("unexpected customer sections %v", customer)
	}
	staff := ids(svc.GetLegalSectionsFor(models.RoleAuthenticator))
	if staff["tos"] || !staff["certification"] || !staff["privacy"] {
		t.Fatalf("unexpected staff sections %v", staff)
	}
	if len(svc.GetLegalSectionsFor(models.RoleAdmin)) != len(svc.GetLegalSections()) {
		t.Fatal("admins see every section")
	}
}
