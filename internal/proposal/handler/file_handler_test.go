package handler

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/entity"
	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/service"
	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/testutil"
	"github.com/gin-gonic/gin"
)

func uploadFile(t *testing.T, router *gin.Engine, proposalID, docType, filename, contentType, content string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(h)
	if err != nil {
		t.Fatalf("create form part: %v", err)
	}
	io.Copy(part, strings.NewReader(content))
	writer.Close()

	req, _ := http.NewRequest("POST", "/api/v1/proposals/"+proposalID+"/files/"+docType, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testutil.OrgToken())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestFileUploadAndDownload(t *testing.T) {
	router, _, _ := setupProposalTest(t)

	data := createProposal(t, router, nil)
	id := data["id"].(string)

	w := uploadFile(t, router, id, entity.DocTypeGPOA, "gpoa-2026.pdf", "application/pdf", "GPOA file body")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	entry := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if entry["blob_key"] == nil || entry["blob_key"] == "" {
		t.Error("Expected non-empty blob_key")
	}
	if entry["original_name"] != "gpoa-2026.pdf" {
		t.Errorf("Expected original name preserved, got %v", entry["original_name"])
	}

	w2 := testutil.DoRequest(router, "GET", "/api/v1/proposals/"+id+"/files/"+entity.DocTypeGPOA, nil, testutil.OrgToken())
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	if w2.Body.String() != "GPOA file body" {
		t.Errorf("Content mismatch: %q", w2.Body.String())
	}
	if cd := w2.Header().Get("Content-Disposition"); !strings.Contains(cd, "gpoa-2026.pdf") {
		t.Errorf("Expected attachment disposition with filename, got %q", cd)
	}

	// uploads are attributed to the authenticated user in the audit trail
	w3 := testutil.DoRequest(router, "GET", "/api/v1/proposals/"+id+"/history", nil, testutil.OrgToken())
	if w3.Code != http.StatusOK {
		t.Fatalf("Expected 200 on history, got %d: %s", w3.Code, w3.Body.String())
	}
	history := testutil.ParseResponse(w3)["data"].([]interface{})
	var uploadEntry map[string]interface{}
	for _, e := range history {
		row := e.(map[string]interface{})
		if row["action"] == entity.AuditActionFileUploaded {
			uploadEntry = row
		}
	}
	if uploadEntry == nil {
		t.Fatal("Expected file_uploaded audit entry")
	}
	if uploadEntry["actor_id"] != "org-user-001" {
		t.Errorf("Expected uploader recorded as actor, got %v", uploadEntry["actor_id"])
	}
}

func TestFileDownloadQuotesFilename(t *testing.T) {
	router, _, _ := setupProposalTest(t)

	data := createProposal(t, router, nil)
	id := data["id"].(string)

	w := uploadFile(t, router, id, entity.DocTypeProposal, "annual plan 2026.pdf", "application/pdf", "plan")
	if w.Code != http.StatusCreated {
		t.Fatalf("upload failed: %d %s", w.Code, w.Body.String())
	}

	w2 := testutil.DoRequest(router, "GET", "/api/v1/proposals/"+id+"/files/"+entity.DocTypeProposal, nil, testutil.OrgToken())
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w2.Code)
	}
	cd := w2.Header().Get("Content-Disposition")
	if !strings.Contains(cd, `filename="annual plan 2026.pdf"`) {
		t.Errorf("Expected quoted filename in disposition, got %q", cd)
	}
}

func TestFileUploadUnknownDocumentType(t *testing.T) {
	router, _, _ := setupProposalTest(t)

	data := createProposal(t, router, nil)
	id := data["id"].(string)

	w := uploadFile(t, router, id, "meeting_minutes", "notes.pdf", "application/pdf", "x")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestFileUploadRejectsDisallowedType(t *testing.T) {
	router, blobs, _ := setupProposalTest(t)

	data := createProposal(t, router, nil)
	id := data["id"].(string)

	w := uploadFile(t, router, id, entity.DocTypeProposal, "malware.exe", "application/x-msdownload", "MZ")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}

	// a .pdf extension does not excuse a disallowed content type
	w2 := uploadFile(t, router, id, entity.DocTypeProposal, "disguised.pdf", "application/x-msdownload", "MZ")
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for disguised upload, got %d: %s", w2.Code, w2.Body.String())
	}
	if blobs.Len() != 0 {
		t.Error("Rejected upload must not reach the blob store")
	}
}

func TestFileUploadExtensionFallbackWithoutContentType(t *testing.T) {
	router, _, _ := setupProposalTest(t)

	data := createProposal(t, router, nil)
	id := data["id"].(string)

	// no Content-Type on the part: the extension decides
	w := uploadFile(t, router, id, entity.DocTypeProposal, "plain.pdf", "", "pdf body")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 for .pdf without content type, got %d: %s", w.Code, w.Body.String())
	}

	w2 := uploadFile(t, router, id, entity.DocTypeGPOA, "notes.txt", "", "text")
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for .txt without content type, got %d: %s", w2.Code, w2.Body.String())
	}
}

func TestFileUploadRejectsOversized(t *testing.T) {
	router, blobs, _ := setupProposalTest(t)

	data := createProposal(t, router, nil)
	id := data["id"].(string)

	big := strings.Repeat("a", MaxFileSize+1)
	w := uploadFile(t, router, id, entity.DocTypeProposal, "big.pdf", "application/pdf", big)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if blobs.Len() != 0 {
		t.Error("Oversized upload must not reach the blob store")
	}
}

func TestFileUploadMissingProposal(t *testing.T) {
	router, _, _ := setupProposalTest(t)

	w := uploadFile(t, router, "no-such-id", entity.DocTypeProposal, "doc.pdf", "application/pdf", "x")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestFileDownloadMissingVariants(t *testing.T) {
	router, blobs, _ := setupProposalTest(t)

	data := createProposal(t, router, nil)
	id := data["id"].(string)

	// no file link record at all
	w := testutil.DoRequest(router, "GET", "/api/v1/proposals/"+id+"/files/"+entity.DocTypeGPOA, nil, testutil.OrgToken())
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 without record, got %d", w.Code)
	}

	wUp := uploadFile(t, router, id, entity.DocTypeGPOA, "gpoa.pdf", "application/pdf", "gpoa")
	if wUp.Code != http.StatusCreated {
		t.Fatalf("upload failed: %d %s", wUp.Code, wUp.Body.String())
	}
	entry := testutil.ParseResponse(wUp)["data"].(map[string]interface{})

	// record exists, entry for another type does not
	w2 := testutil.DoRequest(router, "GET", "/api/v1/proposals/"+id+"/files/"+entity.DocTypeAccomplishmentReport, nil, testutil.OrgToken())
	if w2.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 without entry, got %d", w2.Code)
	}

	// entry exists but the blob vanished out of band
	blobs.Drop(entry["blob_key"].(string))
	w3 := testutil.DoRequest(router, "GET", "/api/v1/proposals/"+id+"/files/"+entity.DocTypeGPOA, nil, testutil.OrgToken())
	if w3.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for missing blob, got %d", w3.Code)
	}
	resp := testutil.ParseResponse(w3)
	respData := resp["data"].(map[string]interface{})
	if respData["resource"] != "blob" {
		t.Errorf("Expected blob resource in error, got %v", respData["resource"])
	}
}

func TestFileDelete(t *testing.T) {
	router, blobs, _ := setupProposalTest(t)

	data := createProposal(t, router, nil)
	id := data["id"].(string)

	uploadFile(t, router, id, entity.DocTypeProposal, "doc.pdf", "application/pdf", "doc")

	w := testutil.DoRequest(router, "DELETE", "/api/v1/proposals/"+id+"/files/"+entity.DocTypeProposal, nil, testutil.OrgToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if blobs.Len() != 0 {
		t.Errorf("Expected blob removed, %d left", blobs.Len())
	}

	w2 := testutil.DoRequest(router, "DELETE", "/api/v1/proposals/"+id+"/files/"+entity.DocTypeProposal, nil, testutil.OrgToken())
	if w2.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 on second delete, got %d", w2.Code)
	}
}

func TestProposalProjectionIncludesFiles(t *testing.T) {
	router, _, _ := setupProposalTest(t)

	data := createProposal(t, router, nil)
	id := data["id"].(string)

	// before any upload the row serves an empty map from the fallback path
	w := testutil.DoRequest(router, "GET", "/api/v1/proposals/"+id, nil, testutil.OrgToken())
	row := testutil.ParseResponse(w)["data"].(map[string]interface{})
	files, ok := row["files"].(map[string]interface{})
	if !ok || len(files) != 0 {
		t.Fatalf("Expected empty files map, got %v", row["files"])
	}
	if row["data_source"] != service.DataSourceDegraded {
		t.Errorf("Expected degraded source without link record, got %v", row["data_source"])
	}

	uploadFile(t, router, id, entity.DocTypeGPOA, "gpoa.pdf", "application/pdf", "gpoa")

	w2 := testutil.DoRequest(router, "GET", "/api/v1/proposals/"+id, nil, testutil.OrgToken())
	row2 := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if row2["data_source"] != service.DataSourceFull {
		t.Errorf("Expected full source, got %v", row2["data_source"])
	}
	files2, ok := row2["files"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected files map, got %v", row2["files"])
	}
	gpoa, ok := files2[entity.DocTypeGPOA].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected gpoa entry, got %v", files2)
	}
	if gpoa["original_name"] != "gpoa.pdf" {
		t.Errorf("Expected gpoa.pdf, got %v", gpoa["original_name"])
	}

	// the list projection carries the same join
	w3 := testutil.DoRequest(router, "GET", "/api/v1/proposals", nil, testutil.OrgToken())
	listData := testutil.ParseResponse(w3)["data"].(map[string]interface{})
	items := listData["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	item := items[0].(map[string]interface{})
	if item["data_source"] != service.DataSourceFull {
		t.Errorf("Expected full source in list, got %v", item["data_source"])
	}
}

func TestProposalDeleteReleasesFiles(t *testing.T) {
	router, blobs, _ := setupProposalTest(t)

	data := createProposal(t, router, nil)
	id := data["id"].(string)

	uploadFile(t, router, id, entity.DocTypeGPOA, "gpoa.pdf", "application/pdf", "gpoa")
	uploadFile(t, router, id, entity.DocTypeProposal, "prop.pdf", "application/pdf", "prop")
	if blobs.Len() != 2 {
		t.Fatalf("Expected 2 blobs, got %d", blobs.Len())
	}

	w := testutil.DoRequest(router, "DELETE", "/api/v1/proposals/"+id, nil, testutil.AdminToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if blobs.Len() != 0 {
		t.Errorf("Expected blobs released with proposal, %d left", blobs.Len())
	}
}
