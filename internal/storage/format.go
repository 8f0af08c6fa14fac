// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat history for fakegpt.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jeranaias/fakegpt/internal/model"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// historyFile is the on-disk document.
type historyFile struct {
	Sessions [][]wireTurn `json:"sessions"`
	Titles   []string     `json:"titles,omitempty"`
}

// wireTurn is one persisted turn. Parts always holds exactly one string.
type wireTurn struct {
	Role  string   `json:"role"`
	Parts []string `json:"parts"`
}

// historySchema describes every document Decode accepts.
const historySchema = `{
  "type": "object",
  "required": ["sessions"],
  "additionalProperties": false,
  "properties": {
    "sessions": {
      "type": "array",
      "items": {
        "type": "array",
        "minItems": 1,
        "items": {"$ref": "#/definitions/turn"}
      }
    },
    "titles": {
      "type": "array",
      "items": {"type": "string"}
    }
  },
  "definitions": {
    "turn": {
      "type": "object",
      "required": ["role", "parts"],
      "additionalProperties": false,
      "properties": {
        "role": {"enum": ["user", "model"]},
        "parts": {
          "type": "array",
          "minItems": 1,
          "maxItems": 1,
          "items": {"type": "string"}
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(historySchema))
	})
	return schema, schemaErr
}

// =============================================================================
// ENCODE / DECODE
// =============================================================================

// Encode renders sessions as a history document. The titles array is only
// written when at least one session carries an explicit title.
func Encode(sessions []model.Session) ([]byte, error) {
	doc := historyFile{Sessions: make([][]wireTurn, 0, len(sessions))}

	hasTitle := false
	titles := make([]string, len(sessions))
	for i, s := range sessions {
		if s.IsEmpty() {
			return nil, fmt.Errorf("session %d has no turns", i)
		}
		turns := make([]wireTurn, 0, len(s.Turns))
		for _, t := range s.Turns {
			if !t.Role.Valid() {
				return nil, fmt.Errorf("session %d: unknown role %q", i, t.Role)
			}
			turns = append(turns, wireTurn{Role: t.Role.String(), Parts: []string{t.Text}})
		}
		doc.Sessions = append(doc.Sessions, turns)
		titles[i] = s.Title
		if s.Title != "" {
			hasTitle = true
		}
	}
	if hasTitle {
		doc.Titles = titles
	}

	return json.MarshalIndent(doc, "", "  ")
}

// Decode validates and parses a history document. Any deviation from the
// schema is reported as ErrMalformed with the list of violations.
func Decode(data []byte) ([]model.Session, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile history schema: %w", err)
	}
	result, err := sch.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			problems = append(problems, re.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformed, strings.Join(problems, "; "))
	}

	var doc historyFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", ErrMalformed)
	}
	if doc.Titles != nil && len(doc.Titles) != len(doc.Sessions) {
		return nil, fmt.Errorf("%w: %d titles for %d sessions", ErrMalformed, len(doc.Titles), len(doc.Sessions))
	}

	sessions := make([]model.Session, 0, len(doc.Sessions))
	for i, wire := range doc.Sessions {
		turns := make([]model.Turn, 0, len(wire))
		for _, wt := range wire {
			role, err := model.ParseRole(wt.Role)
			if err != nil {
				return nil, fmt.Errorf("%w: session %d: %v", ErrMalformed, i, err)
			}
			turns = append(turns, model.NewTurn(role, wt.Parts[0]))
		}
		title := ""
		if doc.Titles != nil {
			title = doc.Titles[i]
		}
		sessions = append(sessions, *model.NewSessionFromTurns(turns, title))
	}
	return sessions, nil
}
