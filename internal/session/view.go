package session

import (
	"encoding/json"
	"log"

	"github.com/ariefcatur/go-skip-selector/internal/skips"
)

type SkipView struct {
	skips.Skip
	TotalPrice      string `json:"total_price,omitempty"`
	DisplayPrice    string `json:"display_price,omitempty"`
	PriceError      string `json:"price_error,omitempty"`
	CapacityPercent string `json:"capacity_percent"`
	Selected        bool   `json:"selected"`
}

// View is the derived state the rendering layer draws from.
type View struct {
	SessionID       string     `json:"session_id"`
	ClientID        string     `json:"client_id"`
	Postcode        string     `json:"postcode"`
	Area            string     `json:"area"`
	Phase           Phase      `json:"phase"`
	Reason          Reason     `json:"reason,omitempty"`
	Title           string     `json:"title,omitempty"`
	Message         string     `json:"message,omitempty"`
	Detail          string     `json:"detail,omitempty"`
	Mode            ViewMode   `json:"view_mode"`
	Skips           []SkipView `json:"skips"`
	Selected        *SkipView  `json:"selected,omitempty"`
	CanContinue     bool       `json:"can_continue"`
	FloatingVisible bool       `json:"floating_visible"`
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		SessionID:       c.opts.SessionID,
		ClientID:        c.opts.ClientID,
		Postcode:        c.opts.Query.Postcode,
		Area:            c.opts.Query.Area,
		Phase:           c.phase,
		Mode:            c.mode,
		Skips:           []SkipView{},
		FloatingVisible: c.deps.Tracker.FloatingVisible(),
	}
	if c.phase == PhaseError {
		v.Reason = c.reason
		v.Title = c.reason.Title()
		v.Message = c.reason.Message()
		if c.err != nil {
			v.Detail = c.err.Error()
		}
	}

	selected, has := c.deps.Store.Selected()
	for _, s := range c.catalog {
		v.Skips = append(v.Skips, c.skipView(s, has && s.ID == selected.ID))
	}
	if has {
		sv := c.skipView(selected, true)
		v.Selected = &sv
		v.CanContinue = c.phase == PhaseBrowsing
	}
	return v
}

func (c *Controller) skipView(s skips.Skip, selected bool) SkipView {
	sv := SkipView{
		Skip:            s,
		CapacityPercent: c.catalog.CapacityPercent(s).String(),
		Selected:        selected,
	}
	total, err := s.TotalPrice()
	if err != nil {
		log.Printf("session %s: skip %d: %v", c.opts.SessionID, s.ID, err)
		sv.PriceError = err.Error()
		return sv
	}
	sv.TotalPrice = total.StringFixed(2)
	sv.DisplayPrice = skips.FormatGBP(total)
	return sv
}

func jsonPayload(v any) (json.RawMessage, error) {
	return json.Marshal(v)
}
