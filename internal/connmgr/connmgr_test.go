package connmgr

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"dlnabridge/internal/templates"
)

func newTestCM(t *testing.T) *ConnectionManager {
	t.Helper()
	renderer, err := templates.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() returned error: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return New(logger, renderer)
}

func soapRequest(action string) *http.Request {
	body := `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
<s:Body><u:` + action + ` xmlns:u="urn:schemas-upnp-org:service:ConnectionManager:1"/></s:Body>
</s:Envelope>`
	return httptest.NewRequest(http.MethodPost, "/ConnectionManager/control", strings.NewReader(body))
}

func TestHandleControlGetProtocolInfo(t *testing.T) {
	cm := newTestCM(t)
	rec := httptest.NewRecorder()

	cm.HandleControl(rec, soapRequest("GetProtocolInfo"))

	body := rec.Body.String()
	if !strings.Contains(body, "GetProtocolInfoResponse") {
		t.Fatalf("expected GetProtocolInfoResponse, got: %s", body)
	}
	if !strings.Contains(body, "video/mp4") || !strings.Contains(body, "audio/flac") || !strings.Contains(body, "image/jpeg") {
		t.Errorf("expected protocol info to cover video/audio/image tuples, got: %s", body)
	}
}

func TestHandleControlGetCurrentConnectionIDs(t *testing.T) {
	cm := newTestCM(t)
	rec := httptest.NewRecorder()

	cm.HandleControl(rec, soapRequest("GetCurrentConnectionIDs"))

	body := rec.Body.String()
	if !strings.Contains(body, "<ConnectionIDs>0</ConnectionIDs>") {
		t.Fatalf("expected fixed connection id 0, got: %s", body)
	}
}

func TestHandleControlGetCurrentConnectionInfo(t *testing.T) {
	cm := newTestCM(t)
	rec := httptest.NewRecorder()

	cm.HandleControl(rec, soapRequest("GetCurrentConnectionInfo"))

	if !strings.Contains(rec.Body.String(), "GetCurrentConnectionInfoResponse") {
		t.Fatalf("expected GetCurrentConnectionInfoResponse, got: %s", rec.Body.String())
	}
}

func TestHandleControlUnknownActionFaults(t *testing.T) {
	cm := newTestCM(t)
	rec := httptest.NewRecorder()

	cm.HandleControl(rec, soapRequest("SetSomethingUnsupported"))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid Action") {
		t.Errorf("expected Invalid Action fault, got: %s", rec.Body.String())
	}
}
