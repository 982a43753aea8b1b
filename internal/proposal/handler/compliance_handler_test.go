package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/entity"
	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/testutil"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func approvedProposal(t *testing.T, router *gin.Engine) string {
	t.Helper()
	data := createProposal(t, router, map[string]interface{}{
		"organization_name": "Compliance Org",
		"status":            entity.StatusPending,
	})
	id := data["id"].(string)
	reviewProposal(t, router, id, entity.ActionApprove)
	return id
}

func submitReport(t *testing.T, router *gin.Engine, id string, names ...string) map[string]interface{} {
	t.Helper()
	docs := make([]map[string]string, 0, len(names))
	for _, n := range names {
		docs = append(docs, map[string]string{"name": n})
	}
	w := testutil.DoRequest(router, "POST", "/api/v1/proposals/"+id+"/report",
		map[string]interface{}{"documents": docs}, testutil.OrgToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 on report, got %d: %s", w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)["data"].(map[string]interface{})
}

func TestComplianceReportPartial(t *testing.T) {
	router, _, _ := setupProposalTest(t)
	id := approvedProposal(t, router)

	data := submitReport(t, router, id, "Final Report", "Budget Report")
	if data["compliance_status"] != entity.CompliancePending {
		t.Errorf("Expected compliance still pending, got %v", data["compliance_status"])
	}

	docs := data["compliance_docs"].([]interface{})
	submitted := 0
	for _, d := range docs {
		doc := d.(map[string]interface{})
		if doc["submitted"] == true {
			submitted++
		}
	}
	if submitted != 2 {
		t.Errorf("Expected 2 submitted docs, got %d", submitted)
	}
}

func TestComplianceReportCompletes(t *testing.T) {
	router, _, _ := setupProposalTest(t)
	id := approvedProposal(t, router)

	submitReport(t, router, id, "Final Report", "Attendance Sheets")
	data := submitReport(t, router, id, "Budget Report", "Photo Documentation")

	if data["compliance_status"] != entity.ComplianceCompliant {
		t.Errorf("Expected compliant, got %v", data["compliance_status"])
	}
	// completing compliance never moves the proposal status
	if data["status"] != entity.StatusApproved {
		t.Errorf("Expected status approved, got %v", data["status"])
	}
}

func TestComplianceReportUnknownDocAppended(t *testing.T) {
	router, _, _ := setupProposalTest(t)
	id := approvedProposal(t, router)

	data := submitReport(t, router, id, "Sponsorship Letter")
	docs := data["compliance_docs"].([]interface{})
	if len(docs) != 5 {
		t.Fatalf("Expected 5 docs after append, got %d", len(docs))
	}
	extra := docs[4].(map[string]interface{})
	if extra["name"] != "Sponsorship Letter" {
		t.Errorf("Expected appended doc, got %v", extra["name"])
	}
	if extra["required"] != false {
		t.Error("Appended doc must not be required")
	}
	if data["compliance_status"] != entity.CompliancePending {
		t.Errorf("Optional extra must not complete compliance, got %v", data["compliance_status"])
	}
}

func TestComplianceReportRequiresApproved(t *testing.T) {
	router, _, _ := setupProposalTest(t)

	data := createProposal(t, router, map[string]interface{}{
		"organization_name": "Early Report Org",
		"status":            entity.StatusPending,
	})
	id := data["id"].(string)

	w := testutil.DoRequest(router, "POST", "/api/v1/proposals/"+id+"/report",
		map[string]interface{}{"documents": []map[string]string{{"name": "Final Report"}}},
		testutil.OrgToken())
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
	conflictData := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if conflictData["current_status"] != entity.StatusPending {
		t.Errorf("Expected current_status pending, got %v", conflictData["current_status"])
	}
}

// backdateDueDate pushes the compliance deadline into the past
func backdateDueDate(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	past := time.Now().Add(-48 * time.Hour)
	if err := db.Model(&entity.Proposal{}).Where("id = ?", id).
		Update("compliance_due_date", past).Error; err != nil {
		t.Fatalf("backdate due date: %v", err)
	}
}

func TestComplianceSweepMarksOverdue(t *testing.T) {
	router, _, db := setupProposalTest(t)
	id := approvedProposal(t, router)
	backdateDueDate(t, db, id)

	w := testutil.DoRequest(router, "POST", "/api/v1/admin/compliance/sweep", nil, testutil.AdminToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	result := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if result["marked_overdue"].(float64) != 1 {
		t.Fatalf("Expected 1 marked overdue, got %v", result["marked_overdue"])
	}

	w2 := testutil.DoRequest(router, "GET", "/api/v1/proposals/"+id, nil, testutil.OrgToken())
	row := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if row["compliance_status"] != entity.ComplianceOverdue {
		t.Errorf("Expected overdue, got %v", row["compliance_status"])
	}
	if row["status"] != entity.StatusApproved {
		t.Errorf("Sweep must not touch proposal status, got %v", row["status"])
	}
}

func TestComplianceSweepIdempotent(t *testing.T) {
	router, _, db := setupProposalTest(t)
	id := approvedProposal(t, router)
	backdateDueDate(t, db, id)

	w := testutil.DoRequest(router, "POST", "/api/v1/admin/compliance/sweep", nil, testutil.AdminToken())
	first := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if first["marked_overdue"].(float64) != 1 {
		t.Fatalf("Expected 1 on first sweep, got %v", first["marked_overdue"])
	}

	// rerunning the sweep finds nothing new
	w2 := testutil.DoRequest(router, "POST", "/api/v1/admin/compliance/sweep", nil, testutil.AdminToken())
	second := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if second["marked_overdue"].(float64) != 0 {
		t.Errorf("Expected 0 on second sweep, got %v", second["marked_overdue"])
	}
}

func TestComplianceSweepSkipsCompliant(t *testing.T) {
	router, _, db := setupProposalTest(t)
	id := approvedProposal(t, router)

	submitReport(t, router, id, "Final Report", "Attendance Sheets", "Budget Report", "Photo Documentation")
	backdateDueDate(t, db, id)

	w := testutil.DoRequest(router, "POST", "/api/v1/admin/compliance/sweep", nil, testutil.AdminToken())
	result := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if result["marked_overdue"].(float64) != 0 {
		t.Errorf("Compliant proposal must not be swept, got %v", result["marked_overdue"])
	}

	w2 := testutil.DoRequest(router, "GET", "/api/v1/proposals/"+id, nil, testutil.OrgToken())
	row := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if row["compliance_status"] != entity.ComplianceCompliant {
		t.Errorf("Expected compliant preserved, got %v", row["compliance_status"])
	}
}

func TestComplianceSweepAdminOnly(t *testing.T) {
	router, _, _ := setupProposalTest(t)

	w := testutil.DoRequest(router, "POST", "/api/v1/admin/compliance/sweep", nil, testutil.OrgToken())
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestOverdueReportStillAccepted(t *testing.T) {
	router, _, db := setupProposalTest(t)
	id := approvedProposal(t, router)
	backdateDueDate(t, db, id)

	testutil.DoRequest(router, "POST", "/api/v1/admin/compliance/sweep", nil, testutil.AdminToken())

	// late submission of the full set still flips overdue to compliant
	data := submitReport(t, router, id, "Final Report", "Attendance Sheets", "Budget Report", "Photo Documentation")
	if data["compliance_status"] != entity.ComplianceCompliant {
		t.Errorf("Expected compliant after late submission, got %v", data["compliance_status"])
	}
}
