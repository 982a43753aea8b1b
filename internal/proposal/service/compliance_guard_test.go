package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/entity"
	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/repository"
	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/testutil"
)

func seedApprovedProposal(t *testing.T, repos *repository.Repositories, id string, due time.Time) {
	t.Helper()
	now := time.Now()
	err := repos.Proposal.Create(context.Background(), &entity.Proposal{
		ID:                id,
		OrganizationName:  "Guard Org",
		Status:            entity.StatusApproved,
		ComplianceStatus:  entity.CompliancePending,
		ComplianceDueDate: &due,
		ComplianceDocs:    entity.DefaultComplianceChecklist(),
		ApprovedAt:        &now,
	})
	if err != nil {
		t.Fatalf("seed approved proposal: %v", err)
	}
}

// The conditional compliance write must fail when compliance_status moved
// between read and write, even though status stays approved the whole time.
func TestUpdateComplianceIfDetectsStaleRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	ctx := context.Background()

	seedApprovedProposal(t, repos, "prop-guard-001", time.Now().Add(-24*time.Hour))

	// reader takes its snapshot while compliance is still pending
	p, err := repos.Proposal.FindByID(ctx, "prop-guard-001")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if p.ComplianceStatus != entity.CompliancePending {
		t.Fatalf("expected pending snapshot, got %s", p.ComplianceStatus)
	}

	// the sweep wins the race and flips the row to overdue
	marked, err := repos.Proposal.MarkOverdue(ctx, "prop-guard-001", time.Now())
	if err != nil || !marked {
		t.Fatalf("mark overdue: marked=%v err=%v", marked, err)
	}

	// the stale writer conditions on the snapshot and must lose
	ok, err := repos.Proposal.UpdateComplianceIf(ctx, "prop-guard-001",
		entity.StatusApproved, p.ComplianceStatus, map[string]interface{}{
			"compliance_status": entity.CompliancePending,
			"updated_at":        time.Now(),
		})
	if err != nil {
		t.Fatalf("conditional update: %v", err)
	}
	if ok {
		t.Fatal("stale compliance write must not be applied")
	}

	fresh, err := repos.Proposal.FindByID(ctx, "prop-guard-001")
	if err != nil {
		t.Fatalf("find after race: %v", err)
	}
	if fresh.ComplianceStatus != entity.ComplianceOverdue {
		t.Errorf("expected overdue preserved, got %s", fresh.ComplianceStatus)
	}

	// a writer conditioning on the fresh value goes through
	ok, err = repos.Proposal.UpdateComplianceIf(ctx, "prop-guard-001",
		entity.StatusApproved, entity.ComplianceOverdue, map[string]interface{}{
			"compliance_status": entity.ComplianceCompliant,
			"updated_at":        time.Now(),
		})
	if err != nil || !ok {
		t.Fatalf("fresh conditional update: ok=%v err=%v", ok, err)
	}
}
