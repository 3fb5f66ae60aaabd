// Package api contains the request bodies accepted by the batchline HTTP API.
// Version v1 represents the current stable API version.
package api

import (
	"net/http"
	"strings"
)

// Analytics API Requests

// CapabilityRequest is the body of POST /api/analytics/capability. Either
// Values or a step/parameter selection supplies the sample.
type CapabilityRequest struct {
	Values    []float64 `json:"values" validate:"omitempty,max=100000,dive,finite"`
	Equipment string    `json:"equipment" validate:"max=200"`
	Step      string    `json:"step" validate:"max=200"`
	Parameter string    `json:"parameter" validate:"max=200"`
	LSL       *float64  `json:"lsl" validate:"required,finite"`
	USL       *float64  `json:"usl" validate:"required,finite"`
}

// Bind implements render.Binder
func (c *CapabilityRequest) Bind(r *http.Request) error {
	c.Equipment = strings.TrimSpace(c.Equipment)
	c.Step = strings.TrimSpace(c.Step)
	c.Parameter = strings.TrimSpace(c.Parameter)
	return nil
}

// System API Requests

// ClientLogRequest is a browser-side log entry forwarded to POST /api/logs
type ClientLogRequest struct {
	Level   string                 `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Message string                 `json:"message" validate:"required,max=2000"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Source  string                 `json:"source,omitempty" validate:"max=200"`
}

// Bind implements render.Binder
func (l *ClientLogRequest) Bind(r *http.Request) error {
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	return nil
}
