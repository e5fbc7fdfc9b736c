package rowexport

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
	FormatKV   Format = "kv"
)

var Formats = []Format{FormatJSON, FormatYAML, FormatCSV, FormatKV}

// FormatFromPath guesses the input format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	case ".kv", ".txt":
		return FormatKV, nil
	default:
		return "", fmt.Errorf("unknown format for %q", path)
	}
}

// Decode reads a record set in the given format. Input in a charset other
// than UTF-8 is converted first; an empty charset means UTF-8.
func Decode(r io.Reader, format Format, charset string) (RecordSet, error) {
	r, err := charsetReader(r, charset)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatJSON:
		return decodeJSON(r)
	case FormatYAML:
		return decodeYAML(r)
	case FormatCSV:
		return decodeCSV(r)
	case FormatKV:
		return decodeKV(r)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func charsetReader(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return r, nil
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", charset, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

func decodeJSON(r io.Reader) (RecordSet, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	var rs RecordSet
	for dec.More() {
		rec, err := decodeJSONObject(dec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(rs), err)
		}
		rs = append(rs, rec)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return rs, nil
}

// decodeJSONObject reads one object token by token so that the key order
// of the input survives.
func decodeJSONObject(dec *json.Decoder) (Record, error) {
	var rec Record
	if err := expectDelim(dec, '{'); err != nil {
		return rec, err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return rec, err
		}
		key, ok := tok.(string)
		if !ok {
			return rec, fmt.Errorf("unexpected token %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return rec, fmt.Errorf("field %q: %w", key, err)
		}
		rec.Set(key, jsonValue(v))
	}
	return rec, expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, d json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != d {
		return fmt.Errorf("expected %v, got %v", d, tok)
	}
	return nil
}

func jsonValue(v any) Value {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func decodeYAML(r io.Reader) (RecordSet, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a sequence of mappings", root.Line)
	}

	rs := make(RecordSet, 0, len(root.Content))
	for i, item := range root.Content {
		if item.Kind == yaml.AliasNode {
			item = item.Alias
		}
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("record %d (line %d): expected a mapping", i, item.Line)
		}
		pairs, err := mappingPairs(item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		var rec Record
		for _, p := range pairs {
			var v any
			if err := p.value.Decode(&v); err != nil {
				return nil, fmt.Errorf("record %d: field %q: %w", i, p.key, err)
			}
			rec.Set(p.key, v)
		}
		rs = append(rs, rec)
	}
	return rs, nil
}

type yamlPair struct {
	key   string
	value *yaml.Node
}

// mappingPairs returns the key/value pairs of a mapping node in order,
// with merge keys (<<) expanded in place. Keys given explicitly in the
// mapping win over merged ones, and earlier merge sources win over later.
func mappingPairs(m *yaml.Node) ([]yamlPair, error) {
	explicit := make(map[string]bool)
	for j := 0; j+1 < len(m.Content); j += 2 {
		if !isMergeKey(m.Content[j]) {
			explicit[m.Content[j].Value] = true
		}
	}

	var pairs []yamlPair
	seen := make(map[string]bool)
	for j := 0; j+1 < len(m.Content); j += 2 {
		key, value := m.Content[j], m.Content[j+1]
		if !isMergeKey(key) {
			pairs = append(pairs, yamlPair{key.Value, value})
			seen[key.Value] = true
			continue
		}

		sources, err := mergeSources(value)
		if err != nil {
			return nil, err
		}
		for _, src := range sources {
			merged, err := mappingPairs(src)
			if err != nil {
				return nil, err
			}
			for _, p := range merged {
				if explicit[p.key] || seen[p.key] {
					continue
				}
				pairs = append(pairs, p)
				seen[p.key] = true
			}
		}
	}
	return pairs, nil
}

func isMergeKey(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Value == "<<" && (n.Tag == "" || n.Tag == "!" || n.ShortTag() == "!!merge")
}

// mergeSources resolves the value of a merge key to the mappings it names.
func mergeSources(n *yaml.Node) ([]*yaml.Node, error) {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.MappingNode:
		return []*yaml.Node{n}, nil
	case yaml.SequenceNode:
		var res []*yaml.Node
		for _, item := range n.Content {
			if item.Kind == yaml.AliasNode {
				item = item.Alias
			}
			if item.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: merge value is not a mapping", item.Line)
			}
			res = append(res, item)
		}
		return res, nil
	default:
		return nil, fmt.Errorf("line %d: merge value is not a mapping", n.Line)
	}
}

// decodeCSV reads a header line followed by data lines. Empty fields and
// fields missing from the end of a short line are nil, so every record
// carries every header column.
func decodeCSV(r io.Reader) (RecordSet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var rs RecordSet
	for {
		line, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}
		if len(line) > len(header) {
			row, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %d fields, header has %d", row, len(line), len(header))
		}

		var rec Record
		for i, field := range line {
			if field == "" {
				rec.Set(header[i], nil)
				continue
			}
			rec.Set(header[i], inferValue(field))
		}
		for i := len(line); i < len(header); i++ {
			rec.Set(header[i], nil)
		}
		rs = append(rs, rec)
	}
	return rs, nil
}
