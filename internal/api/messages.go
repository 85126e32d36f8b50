// Package api defines the JSON payloads of the HTTP and WebSocket surface.
package api

import (
	"encoding/json"

	"github.com/skobkin/ryzenmon/internal/pmtable"
	"github.com/skobkin/ryzenmon/internal/platform"
	"github.com/skobkin/ryzenmon/internal/report"
	"github.com/skobkin/ryzenmon/internal/topology"
)

// System describes the monitored machine. It does not change while running.
type System struct {
	Info          report.SysInfo    `json:"sysinfo"`
	Topology      topology.Topology `json:"topology"`
	Platform      string            `json:"platform,omitempty"`
	Bridges       []platform.Bridge `json:"host_bridges"`
	DriverVersion string            `json:"driver_version,omitempty"`
	Source        string            `json:"source"`
}

// HelloMessage is the initial payload sent on WebSocket connection.
type HelloMessage struct {
	Type           string          `json:"type"`
	IntervalMS     int             `json:"interval_ms"`
	PMTableVersion string          `json:"pm_table_version"`
	System         System          `json:"system"`
	Features       map[string]bool `json:"features"`
}

// NewHelloMessage constructs a hello payload.
func NewHelloMessage(intervalMS int, version uint32, system System, features map[string]bool) HelloMessage {
	return HelloMessage{
		Type:           "hello",
		IntervalMS:     intervalMS,
		PMTableVersion: pmtable.FormatVersion(version),
		System:         system,
		Features:       features,
	}
}

// FrameMessage carries one rendered JSON document.
type FrameMessage struct {
	Type           string          `json:"type"`
	PMTableVersion string          `json:"pm_table_version"`
	Frame          json.RawMessage `json:"frame"`
}

// NewFrameMessage constructs a frame payload around an already encoded document.
func NewFrameMessage(version uint32, document []byte) FrameMessage {
	return FrameMessage{
		Type:           "frame",
		PMTableVersion: pmtable.FormatVersion(version),
		Frame:          json.RawMessage(document),
	}
}

// SchemaResponse describes the layout the running table is decoded with.
type SchemaResponse struct {
	Version  string          `json:"version"`
	Codename string          `json:"codename"`
	Zen      int             `json:"zen"`
	MaxCores int             `json:"max_cores"`
	MaxL3    int             `json:"max_l3"`
	MinSize  int             `json:"min_size"`
	Flags    pmtable.Flags   `json:"flags"`
	Fields   []pmtable.Field `json:"fields"`
	Aliases  []AliasInfo     `json:"aliases"`
}

// AliasInfo is one alias rule as applied to a bound table.
type AliasInfo struct {
	Target   string `json:"target"`
	Source   string `json:"source"`
	Verified bool   `json:"verified"`
	Note     string `json:"note,omitempty"`
}

// NewSchemaResponse builds the schema description; applied lists the alias
// rules that fired for the bound table.
func NewSchemaResponse(schema *pmtable.Schema, applied []pmtable.Alias) SchemaResponse {
	resp := SchemaResponse{
		Version:  schema.String(),
		Codename: schema.Codename,
		Zen:      schema.Zen,
		MaxCores: schema.MaxCores,
		MaxL3:    schema.MaxL3,
		MinSize:  schema.MinSize,
		Flags:    schema.Flags,
		Fields:   schema.Fields(),
		Aliases:  make([]AliasInfo, 0, len(applied)),
	}
	for _, a := range applied {
		resp.Aliases = append(resp.Aliases, AliasInfo{
			Target:   a.Target,
			Source:   a.Source,
			Verified: a.Verified,
			Note:     a.Note,
		})
	}
	return resp
}

// ErrorMessage communicates an error condition to the client.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ClientMessage is a generic envelope used for decoding inbound client messages.
type ClientMessage struct {
	Type string `json:"type"`
}

// PongMessage is the response to a ping.
type PongMessage struct {
	Type string `json:"type"`
}
