package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second, nil)
}

func TestSendSuccess(t *testing.T) {
	var got sendPayload
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/mensajes" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(sendResponse{ServerID: "srv-100", CreatedAt: "2026-08-30T14:05:09.250Z"})
	}))

	res, err := c.Send(context.Background(), SendRequest{
		OperatorID: "12345",
		Content:    "Falla mecánica",
		SenderRole: "OPERADOR",
		LocalID:    "local-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.ServerID != "srv-100" {
		t.Errorf("serverID = %q, want srv-100", res.ServerID)
	}
	if !res.CreatedAt.Equal(time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC)) {
		t.Errorf("createdAt = %v (fractional part should be stripped)", res.CreatedAt)
	}
	if got.LocalID != "local-1" || got.SenderRole != "OPERADOR" {
		t.Errorf("payload = %+v, want correlation token and role on the wire", got)
	}
}

func TestSendRejected(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(errorBody{Message: "La clave debe tener 5 dígitos numéricos", Code: 422})
	}))

	_, err := c.Send(context.Background(), SendRequest{OperatorID: "1", Content: "x", LocalID: "l1"})
	app, ok := AsAppError(err)
	if !ok {
		t.Fatalf("err = %v, want AppError", err)
	}
	if app.Code != 422 || app.Message != "La clave debe tener 5 dígitos numéricos" {
		t.Errorf("app error = %+v", app)
	}
}

func TestSendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // connection refused from here on

	c := NewClient(url, time.Second, nil)
	_, err := c.Send(context.Background(), SendRequest{OperatorID: "1", Content: "x", LocalID: "l1"})
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("err = %v, want ErrUnreachable", err)
	}
	if !IsTransient(err) {
		t.Error("unreachable send must be transient")
	}
}

func TestSendTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Hold the response until the client gives up.
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond, nil)
	_, err := c.Send(context.Background(), SendRequest{OperatorID: "1", Content: "x", LocalID: "l1"})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestFetchSinceCursorAndReadState(t *testing.T) {
	var gotCursor, gotOperator string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/mensajes/hoy" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotOperator = r.URL.Query().Get("operadorId")
		gotCursor = r.URL.Query().Get("desdeId")
		_ = json.NewEncoder(w).Encode([]remoteMessageBody{
			{ServerID: "srv-7", Content: "Confirmado", SenderRole: "ANALISTA", SenderName: "Mesa 2", CreatedAt: "2026-08-30T15:00:00Z"},
			{ServerID: "srv-8", Content: "Recibido", SenderRole: "ANALISTA", CreatedAt: "2026-08-30T15:01:00.5Z", ReadAt: "2026-08-30T15:02:00Z"},
		})
	}))

	msgs, err := c.FetchSince(context.Background(), "12345", "srv-6")
	if err != nil {
		t.Fatal(err)
	}
	if gotOperator != "12345" || gotCursor != "srv-6" {
		t.Errorf("query operador=%q desde=%q", gotOperator, gotCursor)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if !msgs[0].ReadAt.IsZero() {
		t.Error("first message should be unread (no fechaLectura)")
	}
	if msgs[1].ReadAt.IsZero() {
		t.Error("second message should carry its read timestamp")
	}
}

func TestFetchSinceOmitsEmptyCursor(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("desdeId") {
			t.Error("desdeId sent for first-run fetch")
		}
		_ = json.NewEncoder(w).Encode([]remoteMessageBody{})
	}))

	msgs, err := c.FetchSince(context.Background(), "12345", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("got %d messages, want 0", len(msgs))
	}
}

func TestMarkReadNoopOnEmpty(t *testing.T) {
	called := false
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	if err := c.MarkRead(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("empty mark-read should not hit the network")
	}
}

func TestPredefinedResponses(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]predefinedBody{
			{ID: 1, Text: "En ruta", Category: "estado", SortOrder: 1, Active: true},
		})
	}))

	out, err := c.PredefinedResponses(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Text != "En ruta" {
		t.Errorf("out = %+v", out)
	}
}

func TestAuthenticate(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p authPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		if p.Code != "12345" {
			t.Errorf("clave = %q", p.Code)
		}
		_ = json.NewEncoder(w).Encode(authResponse{
			Token: "tok", OperatorID: "12345", DisplayName: "J. Pérez",
			ExpiresAt: "2026-09-30T00:00:00Z",
		})
	}))

	s, err := c.Authenticate(context.Background(), "12345")
	if err != nil {
		t.Fatal(err)
	}
	if s.Token != "tok" || s.OperatorID != "12345" {
		t.Errorf("session = %+v", s)
	}
}

func TestUploadAttendance(t *testing.T) {
	var got attendancePayload
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))

	err := c.UploadAttendance(context.Background(), []AttendanceRecord{
		{LocalID: "a1", OperatorID: "12345", Kind: "ENTRADA", RecordedAt: time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.OperatorID != "12345" || len(got.Records) != 1 || got.Records[0].RecordedAt != "2026-08-30T08:00:00Z" {
		t.Errorf("payload = %+v", got)
	}
}
