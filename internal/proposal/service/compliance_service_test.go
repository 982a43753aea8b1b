package service

import (
	"testing"
	"time"

	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/entity"
)

func TestApplySubmissionsMarksMatching(t *testing.T) {
	docs := entity.DefaultComplianceChecklist()
	now := time.Now()

	out := ApplySubmissions(docs, []ReportDocumentInput{
		{Name: "Final Report", BlobKey: "blob/final-report.pdf"},
	}, now)

	if len(out) != len(docs) {
		t.Fatalf("expected %d docs, got %d", len(docs), len(out))
	}
	var found bool
	for _, d := range out {
		if d.Name == "Final Report" {
			found = true
			if !d.Submitted {
				t.Error("expected Final Report marked submitted")
			}
			if d.BlobKey != "blob/final-report.pdf" {
				t.Errorf("expected blob key carried over, got %q", d.BlobKey)
			}
			if d.SubmittedAt == nil || !d.SubmittedAt.Equal(now) {
				t.Error("expected SubmittedAt set to submission time")
			}
		} else if d.Submitted {
			t.Errorf("doc %q should not be submitted", d.Name)
		}
	}
	if !found {
		t.Fatal("Final Report missing from output")
	}
}

func TestApplySubmissionsDoesNotMutateInput(t *testing.T) {
	docs := entity.DefaultComplianceChecklist()
	ApplySubmissions(docs, []ReportDocumentInput{{Name: "Final Report"}}, time.Now())

	for _, d := range docs {
		if d.Submitted {
			t.Fatalf("input checklist mutated: %q marked submitted", d.Name)
		}
	}
}

func TestApplySubmissionsAppendsUnknownAsOptional(t *testing.T) {
	docs := entity.DefaultComplianceChecklist()
	out := ApplySubmissions(docs, []ReportDocumentInput{
		{Name: "Sponsorship Letter", BlobKey: "blob/sponsor.pdf"},
	}, time.Now())

	if len(out) != len(docs)+1 {
		t.Fatalf("expected unknown doc appended, got %d docs", len(out))
	}
	extra := out[len(out)-1]
	if extra.Name != "Sponsorship Letter" {
		t.Fatalf("expected appended doc, got %q", extra.Name)
	}
	if extra.Required {
		t.Error("appended doc must not be required")
	}
	if !extra.Submitted {
		t.Error("appended doc should be marked submitted")
	}

	// an optional extra never blocks nor satisfies the required set
	if out.AllRequiredSubmitted() {
		t.Error("required docs still outstanding, checklist cannot be complete")
	}
}

func TestAllRequiredSubmitted(t *testing.T) {
	docs := entity.DefaultComplianceChecklist()
	now := time.Now()

	var subs []ReportDocumentInput
	for _, d := range docs {
		subs = append(subs, ReportDocumentInput{Name: d.Name})
	}

	partial := ApplySubmissions(docs, subs[:len(subs)-1], now)
	if partial.AllRequiredSubmitted() {
		t.Error("checklist complete with one required doc missing")
	}

	full := ApplySubmissions(docs, subs, now)
	if !full.AllRequiredSubmitted() {
		t.Error("expected checklist complete after all required docs submitted")
	}
}

func TestDefaultComplianceChecklist(t *testing.T) {
	docs := entity.DefaultComplianceChecklist()
	if len(docs) != 4 {
		t.Fatalf("expected 4 checklist docs, got %d", len(docs))
	}
	for _, d := range docs {
		if !d.Required {
			t.Errorf("doc %q should be required", d.Name)
		}
		if d.Submitted {
			t.Errorf("doc %q should start unsubmitted", d.Name)
		}
	}
	if docs.AllRequiredSubmitted() {
		t.Error("fresh checklist must not be complete")
	}
}
