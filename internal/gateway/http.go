package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client is the HTTP implementation of Gateway against the dispatch REST API.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

var _ Gateway = (*Client)(nil)

// NewClient creates a gateway client for the given base URL. The timeout
// applies per request; there is no internal retry.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	hc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	return &Client{http: hc, logger: logger}
}

// SetToken installs the session bearer token on subsequent requests.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

// Wire payloads. Field names follow the dispatch API, which is Spanish.
type errorBody struct {
	Message string `json:"mensaje"`
	Code    int    `json:"codigo"`
}

type authPayload struct {
	Code string `json:"clave"`
}

type authResponse struct {
	Token       string `json:"token"`
	OperatorID  string `json:"operadorId"`
	DisplayName string `json:"nombre"`
	ExpiresAt   string `json:"expiraEn"`
}

type sendPayload struct {
	OperatorID   string `json:"operadorId"`
	Content      string `json:"contenido"`
	SenderRole   string `json:"rol"`
	SenderName   string `json:"nombreEmisor"`
	Predefined   bool   `json:"esPredefinida"`
	PredefinedID int64  `json:"respuestaPredefinidaId,omitempty"`
	LocalID      string `json:"idLocal"`
}

type sendResponse struct {
	ServerID  string `json:"id"`
	CreatedAt string `json:"fechaCreacion"`
}

type remoteMessageBody struct {
	ServerID   string `json:"id"`
	Content    string `json:"contenido"`
	SenderRole string `json:"rol"`
	SenderID   string `json:"emisorId"`
	SenderName string `json:"nombreEmisor"`
	CreatedAt  string `json:"fechaCreacion"`
	ReadAt     string `json:"fechaLectura,omitempty"`
}

type markReadPayload struct {
	IDs []string `json:"ids"`
}

type predefinedBody struct {
	ID        int64  `json:"id"`
	Text      string `json:"texto"`
	Category  string `json:"categoria"`
	SortOrder int    `json:"orden"`
	Active    bool   `json:"activa"`
}

type attendancePayload struct {
	OperatorID string                 `json:"operadorId"`
	Records    []attendanceRecordBody `json:"registros"`
}

type attendanceRecordBody struct {
	LocalID    string `json:"idLocal"`
	Kind       string `json:"tipo"`
	RecordedAt string `json:"fechaRegistro"`
}

// Authenticate exchanges an operator code for a session.
func (c *Client) Authenticate(ctx context.Context, code string) (*Session, error) {
	var out authResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(authPayload{Code: code}).
		SetResult(&out).
		Post("/api/auth/login")
	if err != nil {
		return nil, Classify(err)
	}
	if resp.IsError() {
		return nil, c.appError(resp)
	}
	expires, err := ParseWireTime(out.ExpiresAt)
	if err != nil {
		return nil, &AppError{Message: fmt.Sprintf("malformed expiraEn %q: %v", out.ExpiresAt, err)}
	}
	return &Session{
		Token:       out.Token,
		OperatorID:  out.OperatorID,
		DisplayName: out.DisplayName,
		ExpiresAt:   expires,
	}, nil
}

// Send submits one message and returns the server's acknowledgment.
func (c *Client) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	var out sendResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(sendPayload{
			OperatorID:   req.OperatorID,
			Content:      req.Content,
			SenderRole:   req.SenderRole,
			SenderName:   req.SenderName,
			Predefined:   req.Predefined,
			PredefinedID: req.PredefinedID,
			LocalID:      req.LocalID,
		}).
		SetResult(&out).
		Post("/api/mensajes")
	if err != nil {
		return nil, Classify(err)
	}
	if resp.IsError() {
		return nil, c.appError(resp)
	}
	created, err := ParseWireTime(out.CreatedAt)
	if err != nil {
		return nil, &AppError{Message: fmt.Sprintf("malformed fechaCreacion %q: %v", out.CreatedAt, err)}
	}
	return &SendResult{ServerID: out.ServerID, CreatedAt: created}, nil
}

// FetchSince returns today's messages after the cursor, in server order.
// An empty cursor fetches the whole day.
func (c *Client) FetchSince(ctx context.Context, operatorID, cursorServerID string) ([]RemoteMessage, error) {
	var out []remoteMessageBody
	r := c.http.R().
		SetContext(ctx).
		SetQueryParam("operadorId", operatorID).
		SetResult(&out)
	if cursorServerID != "" {
		r.SetQueryParam("desdeId", cursorServerID)
	}
	resp, err := r.Get("/api/mensajes/hoy")
	if err != nil {
		return nil, Classify(err)
	}
	if resp.IsError() {
		return nil, c.appError(resp)
	}

	msgs := make([]RemoteMessage, 0, len(out))
	for _, b := range out {
		created, err := ParseWireTime(b.CreatedAt)
		if err != nil {
			return nil, &AppError{Message: fmt.Sprintf("malformed fechaCreacion %q: %v", b.CreatedAt, err)}
		}
		m := RemoteMessage{
			ServerID:   b.ServerID,
			Content:    b.Content,
			SenderRole: b.SenderRole,
			SenderID:   b.SenderID,
			SenderName: b.SenderName,
			CreatedAt:  created,
		}
		if b.ReadAt != "" {
			readAt, err := ParseWireTime(b.ReadAt)
			if err != nil {
				return nil, &AppError{Message: fmt.Sprintf("malformed fechaLectura %q: %v", b.ReadAt, err)}
			}
			m.ReadAt = readAt
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// MarkRead reports read receipts for the given server ids.
func (c *Client) MarkRead(ctx context.Context, serverIDs []string) error {
	if len(serverIDs) == 0 {
		return nil
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(markReadPayload{IDs: serverIDs}).
		Post("/api/mensajes/leidos")
	if err != nil {
		return Classify(err)
	}
	if resp.IsError() {
		return c.appError(resp)
	}
	return nil
}

// PredefinedResponses fetches the current reply templates.
func (c *Client) PredefinedResponses(ctx context.Context) ([]PredefinedResponse, error) {
	var out []predefinedBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/respuestas-predefinidas")
	if err != nil {
		return nil, Classify(err)
	}
	if resp.IsError() {
		return nil, c.appError(resp)
	}

	responses := make([]PredefinedResponse, 0, len(out))
	for _, b := range out {
		responses = append(responses, PredefinedResponse{
			ID:        b.ID,
			Text:      b.Text,
			Category:  b.Category,
			SortOrder: b.SortOrder,
			Active:    b.Active,
		})
	}
	return responses, nil
}

// UploadAttendance posts a batch of shift marks.
func (c *Client) UploadAttendance(ctx context.Context, records []AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	payload := attendancePayload{OperatorID: records[0].OperatorID}
	for _, r := range records {
		payload.Records = append(payload.Records, attendanceRecordBody{
			LocalID:    r.LocalID,
			Kind:       r.Kind,
			RecordedAt: FormatWireTime(r.RecordedAt),
		})
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/api/asistencia/lote")
	if err != nil {
		return Classify(err)
	}
	if resp.IsError() {
		return c.appError(resp)
	}
	return nil
}

// appError converts a non-2xx response into an AppError, decoding the
// server's error body when present.
func (c *Client) appError(resp *resty.Response) error {
	c.logger.Warn("dispatch API rejected request",
		zap.String("url", resp.Request.URL),
		zap.Int("status", resp.StatusCode()))
	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
		if body.Code == 0 {
			body.Code = resp.StatusCode()
		}
		return &AppError{Message: body.Message, Code: body.Code}
	}
	return &AppError{Message: resp.Status(), Code: resp.StatusCode()}
}
