// Package patch implements partial document updates.
//
// A Patch maps dotted paths to values. The last path segment may carry the
// "-=" deletion marker to drop a map key ("items.-=abc"), and a Pull value
// removes matching elements from an array. Every other value replaces the
// addressed field, creating intermediate objects as needed.
package patch

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
)

// DeleteMarker prefixes a key that should be removed from its parent map
const DeleteMarker = "-="

// Patch is a set of dotted-path updates
type Patch map[string]any

// PullOp removes elements equal to any of Values from an array field
type PullOp struct {
	Values []any
}

// Pull builds a PullOp
func Pull(values ...any) PullOp {
	return PullOp{Values: values}
}

// New returns an empty patch
func New() Patch {
	return Patch{}
}

// Set replaces the value at path
func (p Patch) Set(path string, value any) Patch {
	p[path] = value
	return p
}

// Remove deletes key from the map at path
func (p Patch) Remove(path, key string) Patch {
	if path == "" {
		p[DeleteMarker+key] = nil
		return p
	}
	p[path+"."+DeleteMarker+key] = nil
	return p
}

// PullFrom removes values from the array at path
func (p Patch) PullFrom(path string, values ...any) Patch {
	p[path] = Pull(values...)
	return p
}

// Merge copies other's entries into p
func (p Patch) Merge(other Patch) Patch {
	for k, v := range other {
		p[k] = v
	}
	return p
}

// Apply patches target, which must be a pointer to a JSON-serializable value
func Apply(target any, p Patch) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return dherr.InvalidArgumentf("patch target must be a non-nil pointer, got %T", target)
	}

	raw, err := json.Marshal(target)
	if err != nil {
		return dherr.Wrap(err, "failed to encode patch target")
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return dherr.Wrap(err, "patch target is not an object")
	}

	if err := ApplyMap(doc, p); err != nil {
		return err
	}

	patched, err := json.Marshal(doc)
	if err != nil {
		return dherr.Wrap(err, "failed to encode patched document")
	}

	// Decode into a zero value so deleted map keys do not survive the merge.
	elem := rv.Elem()
	elem.Set(reflect.Zero(elem.Type()))
	if err := json.Unmarshal(patched, target); err != nil {
		return dherr.Wrap(err, "failed to decode patched document")
	}
	return nil
}

// ApplyMap patches a decoded JSON object in place
func ApplyMap(doc map[string]any, p Patch) error {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == "" {
			return dherr.InvalidArgumentf("patch key cannot be empty")
		}
		segs := strings.Split(key, ".")
		last := segs[len(segs)-1]
		value := p[key]

		if strings.HasPrefix(last, DeleteMarker) {
			parent, err := walk(doc, segs[:len(segs)-1], false)
			if err != nil {
				return err
			}
			if parent != nil {
				delete(parent, strings.TrimPrefix(last, DeleteMarker))
			}
			continue
		}

		if pull, ok := value.(PullOp); ok {
			parent, err := walk(doc, segs[:len(segs)-1], false)
			if err != nil {
				return err
			}
			if parent == nil {
				continue
			}
			if err := pullValues(parent, last, pull.Values); err != nil {
				return dherr.Wrapf(err, "patch %s", key)
			}
			continue
		}

		parent, err := walk(doc, segs[:len(segs)-1], true)
		if err != nil {
			return err
		}
		normalized, err := normalize(value)
		if err != nil {
			return dherr.Wrapf(err, "patch %s", key)
		}
		parent[last] = normalized
	}
	return nil
}

// walk descends into doc along path. With create unset a missing branch
// returns nil without error.
func walk(doc map[string]any, path []string, create bool) (map[string]any, error) {
	current := doc
	for i, seg := range path {
		next, ok := current[seg]
		if !ok || next == nil {
			if !create {
				return nil, nil
			}
			child := map[string]any{}
			current[seg] = child
			current = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return nil, dherr.InvalidArgumentf("patch path %s is not an object", strings.Join(path[:i+1], "."))
		}
		current = child
	}
	return current, nil
}

func pullValues(parent map[string]any, field string, values []any) error {
	existing, ok := parent[field]
	if !ok || existing == nil {
		return nil
	}
	arr, ok := existing.([]any)
	if !ok {
		return fmt.Errorf("field %s is not an array", field)
	}

	remove := make([]any, 0, len(values))
	for _, v := range values {
		n, err := normalize(v)
		if err != nil {
			return err
		}
		remove = append(remove, n)
	}

	kept := make([]any, 0, len(arr))
	for _, el := range arr {
		drop := false
		for _, r := range remove {
			if reflect.DeepEqual(el, r) {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, el)
		}
	}
	parent[field] = kept
	return nil
}

// normalize turns structs and typed slices into plain JSON values
func normalize(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64, map[string]any, []any:
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
