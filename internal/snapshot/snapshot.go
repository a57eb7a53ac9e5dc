package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Jeverett3000/tapi/internal/storage"

	"github.com/minio/minio-go/v7"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Format names the encoding of a snapshot.
type Format string

const (
	// FormatAuto picks the format from the file extension, defaulting to JSON.
	FormatAuto Format = "auto"
	// FormatJSON is the native SDKDB encoding.
	FormatJSON Format = "json"
	// FormatYAML is accepted for hand-written baselines.
	FormatYAML Format = "yaml"
)

var (
	// ErrInvalidJSON is returned for snapshots that aren't well formed JSON.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrNoStorage is returned when an s3:// location is loaded without a
	// storage client.
	ErrNoStorage = errors.New("no storage client configured")
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown snapshot format %q", s)
	}
}

// Loader reads snapshot trees from local files or object storage.
type Loader struct {
	// Storage fetches s3:// locations, may be nil if only files are loaded.
	Storage storage.Client
	// Format forces a decoding, FormatAuto if empty.
	Format Format
	Logger *zap.Logger
}

// Load reads & decodes the snapshot at location.
func (l *Loader) Load(ctx context.Context, location string) (interface{}, error) {
	data, err := l.read(ctx, location)
	if err != nil {
		return nil, err
	}

	format := l.formatOf(location)
	if l.Logger != nil {
		l.Logger.Debug("Loaded snapshot",
			zap.String("location", location),
			zap.String("format", string(format)),
			zap.Int("bytes", len(data)),
		)
	}

	v, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return v, nil
}

func (l *Loader) read(ctx context.Context, location string) ([]byte, error) {
	if !storage.IsObjectURL(location) {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot: %w", err)
		}
		return data, nil
	}

	if l.Storage == nil {
		return nil, fmt.Errorf("%s: %w", location, ErrNoStorage)
	}
	bucket, object, err := storage.ParseObjectURL(location)
	if err != nil {
		return nil, err
	}

	info, err := l.Storage.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot %s: %w", location, err)
	}
	if l.Logger != nil {
		l.Logger.Debug("Fetching snapshot",
			zap.String("location", location),
			zap.Int64("size", info.Size),
			zap.String("etag", info.ETag),
		)
	}

	obj, err := l.Storage.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot %s: %w", location, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", location, err)
	}
	return data, nil
}

func (l *Loader) formatOf(location string) Format {
	if l.Format != "" && l.Format != FormatAuto {
		return l.Format
	}
	switch strings.ToLower(filepath.Ext(location)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses snapshot data into a tree of map[string]interface{},
// []interface{} and scalars.
func Decode(data []byte, format Format) (interface{}, error) {
	switch format {
	case FormatYAML:
		var doc yaml.Node
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		keepTimestampText(&doc)

		var v interface{}
		if err := doc.Decode(&v); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		return normalize(v), nil
	default:
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: not UTF-8 text", ErrInvalidJSON)
		}
		if !gjson.ValidBytes(data) {
			return nil, ErrInvalidJSON
		}
		return jsonValue(gjson.ParseBytes(data)), nil
	}
}

// jsonValue builds a tree from a parsed document. when an object repeats a
// key the last value wins
func jsonValue(r gjson.Result) interface{} {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return r.Num
	case gjson.String:
		return r.Str
	}

	if r.IsArray() {
		list := []interface{}{}
		r.ForEach(func(_, value gjson.Result) bool {
			list = append(list, jsonValue(value))
			return true
		})
		return list
	}

	m := map[string]interface{}{}
	r.ForEach(func(key, value gjson.Result) bool {
		m[key.Str] = jsonValue(value)
		return true
	})
	return m
}

// keepTimestampText retags unquoted dates as strings so they compare equal to
// the same date in a JSON snapshot
func keepTimestampText(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!timestamp" {
		n.Tag = "!!str"
		n.Style = yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		keepTimestampText(c)
	}
}

// normalize converts YAML mappings with non-string keys into string keyed
// mappings so every tree has the same shape regardless of encoding
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		for k, val := range x {
			x[k] = normalize(val)
		}
		return x
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, val := range x {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case []interface{}:
		for i, val := range x {
			x[i] = normalize(val)
		}
		return x
	default:
		return v
	}
}
