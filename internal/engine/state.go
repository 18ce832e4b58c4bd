package engine

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// Session is the engine's only mutable state: the selections behind the
// most recent completed review and the report it produced. Each analysis
// replaces it wholesale; a superseded analysis never writes it.
type Session struct {
	Request     AnalyzeRequest `json:"request"`
	Report      *Report        `json:"report"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Session returns the last completed review, or nil before the first one.
func (e *Engine) Session() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// ShareToken encodes the current session's selections as a share token.
func (e *Engine) ShareToken() (string, error) {
	s := e.Session()
	if s == nil {
		return "", fmt.Errorf("no completed review to share")
	}
	return EncodeTradeState(models.TradeState{
		Ticker:    s.Report.Contract.Ticker,
		Kind:      s.Report.Contract.Kind,
		Strike:    s.Report.Contract.Strike,
		Expiry:    s.Report.Contract.Expiry,
		PricePaid: s.Request.PricePaid,
		Owns:      s.Request.OwnsPosition,
	})
}

// EncodeTradeState packs a trade into the URL-safe token used by share
// links. The token carries inputs only; whoever opens the link gets a
// fresh analysis.
func EncodeTradeState(s models.TradeState) (string, error) {
	if s.Ticker == "" || s.Strike <= 0 || s.Expiry == "" {
		return "", fmt.Errorf("trade state incomplete")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// DecodeTradeState unpacks a share token. It accepts both URL-safe and
// standard base64 since tokens travel through chat apps that rewrite
// them.
func DecodeTradeState(token string) (*models.TradeState, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("empty trade token")
	}

	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		data, err = base64.StdEncoding.DecodeString(token)
	}
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(token)
	}
	if err != nil {
		return nil, fmt.Errorf("decode trade token: %w", err)
	}

	var s models.TradeState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode trade token: %w", err)
	}
	if s.Ticker == "" || s.Strike <= 0 || s.Expiry == "" {
		return nil, fmt.Errorf("trade token incomplete")
	}
	s.Ticker = strings.ToUpper(s.Ticker)
	return &s, nil
}
