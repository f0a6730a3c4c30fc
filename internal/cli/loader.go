package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/gantt/internal/domain/model"
	"github.com/okian/gantt/internal/domain/types"
)

// Loader errors.
var (
	ErrEmptyInput = errors.New("empty input")
	ErrDecode     = errors.New("decode input")
)

// LoadRequest reads a record file. path "-" reads stdin. The document is
// either a bare list of records or a request object with a records field.
// Files ending in .json are JSON, .yaml/.yml are YAML; anything else is
// sniffed from its first character.
func LoadRequest(path string, stdin io.Reader) (types.TimelineRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return types.TimelineRequest{}, fmt.Errorf("read %s: %w", path, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return types.TimelineRequest{}, fmt.Errorf("%s: %w", path, ErrEmptyInput)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".json":
		return decodeJSON(data)
	case ext == ".yaml", ext == ".yml":
		return decodeYAML(data)
	case data[0] == '{', data[0] == '[':
		return decodeJSON(data)
	default:
		return decodeYAML(data)
	}
}

// decodeJSON keeps numbers as json.Number so epoch milliseconds stay exact.
func decodeJSON(data []byte) (types.TimelineRequest, error) {
	var req types.TimelineRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if data[0] == '[' {
		if err := dec.Decode(&req.Records); err != nil {
			return req, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return req, nil
	}
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return req, nil
}

func decodeYAML(data []byte) (types.TimelineRequest, error) {
	var (
		req  types.TimelineRequest
		node yaml.Node
	)
	if err := yaml.Unmarshal(data, &node); err != nil {
		return req, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	doc := &node
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind == yaml.SequenceNode {
		var records []model.Record
		if err := doc.Decode(&records); err != nil {
			return req, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		req.Records = records
		return req, nil
	}
	if err := doc.Decode(&req); err != nil {
		return req, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return req, nil
}
