package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeToast(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	trigger := rec.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("expected HX-Trigger header to be set")
	}
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trigger), &parsed); err != nil {
		t.Fatalf("HX-Trigger is not valid JSON: %v", err)
	}
	raw, ok := parsed["showToast"]
	if !ok {
		t.Fatal("expected showToast key in HX-Trigger JSON")
	}
	var toast map[string]string
	if err := json.Unmarshal(raw, &toast); err != nil {
		t.Fatalf("showToast value is not valid JSON: %v", err)
	}
	return toast
}

func TestSetToast_Types(t *testing.T) {
	tests := []struct {
		name      string
		toastType string
		message   string
	}{
		{"success", "success", "Bill saved"},
		{"error", "error", "Something went wrong"},
		{"info", "info", "Drafts cleared"},
		{"warning", "warning", "1 of 6 formats failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e := newTestRequestEvent(nil, httptest.NewRequest(http.MethodGet, "/", nil), rec)

			SetToast(e, tt.toastType, tt.message)

			toast := decodeToast(t, rec)
			if toast["type"] != tt.toastType {
				t.Errorf("expected type %q, got %q", tt.toastType, toast["type"])
			}
			if toast["message"] != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, toast["message"])
			}
		})
	}
}

func TestSetToast_MergesExistingTrigger(t *testing.T) {
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(nil, httptest.NewRequest(http.MethodGet, "/", nil), rec)
	rec.Header().Set("HX-Trigger", `{"billSaved":{"id":"abc"}}`)

	SetToast(e, "success", "Bill saved")

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &parsed); err != nil {
		t.Fatalf("HX-Trigger is not valid JSON: %v", err)
	}
	if _, ok := parsed["billSaved"]; !ok {
		t.Error("expected existing billSaved trigger to be kept")
	}
	if _, ok := parsed["showToast"]; !ok {
		t.Error("expected showToast to be added")
	}
}

func TestSetToast_InvalidExistingTriggerIsReplaced(t *testing.T) {
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(nil, httptest.NewRequest(http.MethodGet, "/", nil), rec)
	rec.Header().Set("HX-Trigger", "not json")

	SetToast(e, "info", "hello")

	toast := decodeToast(t, rec)
	if toast["message"] != "hello" {
		t.Errorf("expected message %q, got %q", "hello", toast["message"])
	}
}

func TestSetToast_SetsFlashCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(nil, httptest.NewRequest(http.MethodGet, "/", nil), rec)

	SetToast(e, "success", "Saved")

	cookies := rec.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == "flash_toast" {
			found = true
			if c.MaxAge != 10 {
				t.Errorf("flash_toast MaxAge = %d, want 10", c.MaxAge)
			}
		}
	}
	if !found {
		t.Error("expected flash_toast cookie")
	}
}

func TestErrorToast(t *testing.T) {
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(nil, httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := ErrorToast(e, http.StatusBadRequest, "Missing bill ID"); err != nil {
		t.Fatalf("ErrorToast returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if rec.Header().Get("HX-Reswap") != "none" {
		t.Errorf("expected HX-Reswap none, got %q", rec.Header().Get("HX-Reswap"))
	}
	if !strings.Contains(rec.Body.String(), "Missing bill ID") {
		t.Errorf("expected body to contain message, got %q", rec.Body.String())
	}
	if toast := decodeToast(t, rec); toast["type"] != "error" {
		t.Errorf("expected error toast, got %q", toast["type"])
	}
}

func TestErrorToastJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(nil, httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := ErrorToastJSON(e, http.StatusNotFound, "Bill not found", errorBody{Error: "bill not found"}); err != nil {
		t.Fatalf("ErrorToastJSON returned error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Error != "bill not found" {
		t.Errorf("error = %q, want %q", body.Error, "bill not found")
	}
}
