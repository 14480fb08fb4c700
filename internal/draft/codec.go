package draft

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/debemdeboas/draftkeep/internal/compression"
	"github.com/debemdeboas/draftkeep/internal/util"
)

// encoded is the storage form shared by every backend.
type encoded struct {
	Compression string
	Content     []byte
	Fields      []byte
	Hash        string
	SavedAt     time.Time
}

func encode(r *Record, c compression.Compressor) (*encoded, error) {
	fields := stamp(r)

	packed, err := c.Compress(r.Content)
	if err != nil {
		return nil, fmt.Errorf("error compressing content: %w", err)
	}

	var fieldsJSON []byte
	if len(fields) > 0 {
		fieldsJSON, err = json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("error encoding fields: %w", err)
		}
	}

	return &encoded{
		Compression: c.Name(),
		Content:     packed,
		Fields:      fieldsJSON,
		Hash:        r.Hash,
		SavedAt:     r.SavedAt,
	}, nil
}

func decode(e *encoded) (*Record, error) {
	c, err := compression.ForName(e.Compression)
	if err != nil {
		return nil, err
	}

	content, err := c.Decompress(e.Content)
	if err != nil {
		return nil, fmt.Errorf("error decompressing content: %w", err)
	}

	if e.Hash != "" && util.ContentHash(content) != e.Hash {
		return nil, fmt.Errorf("content hash mismatch: stored %s", e.Hash)
	}

	var fields map[string]any
	if len(e.Fields) > 0 {
		if err := json.Unmarshal(e.Fields, &fields); err != nil {
			return nil, fmt.Errorf("error decoding fields: %w", err)
		}
	}

	return &Record{
		ID:      RecordID,
		Content: content,
		Fields:  fields,
		SavedAt: e.SavedAt,
		Hash:    e.Hash,
	}, nil
}

const envelopeVersion = 1

// envelope is the single-document form used by the file and object backends.
type envelope struct {
	Version     int             `json:"version"`
	ID          string          `json:"id"`
	Compression string          `json:"compression"`
	Content     []byte          `json:"content"`
	Fields      json.RawMessage `json:"fields,omitempty"`
	Hash        string          `json:"hash"`
	SavedAt     time.Time       `json:"saved_at"`
}

func marshalEnvelope(e *encoded) ([]byte, error) {
	return json.Marshal(envelope{
		Version:     envelopeVersion,
		ID:          RecordID,
		Compression: e.Compression,
		Content:     e.Content,
		Fields:      e.Fields,
		Hash:        e.Hash,
		SavedAt:     e.SavedAt,
	})
}

func unmarshalEnvelope(data []byte) (*encoded, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("error decoding draft document: %w", err)
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("unsupported draft document version %d", env.Version)
	}

	return &encoded{
		Compression: env.Compression,
		Content:     env.Content,
		Fields:      env.Fields,
		Hash:        env.Hash,
		SavedAt:     env.SavedAt,
	}, nil
}
