// Package jsonmap decodes JSON payloads into records with explicit rules for
// members the record does not declare.
//
// In strict mode an undeclared member, or a missing member whose json tag
// has no omitempty, fails the decode. In lenient mode undeclared members are
// kept on the record when it can hold them (see ExtraSetter). Records that
// implement OverflowMatcher keep matching members in both modes.
package jsonmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/tidwall/sjson"

	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

// ExtraSetter is implemented by records that keep undeclared members.
type ExtraSetter interface {
	SetExtra(name string, raw json.RawMessage)
}

// ExtraSource is implemented by records whose kept members are written
// back by Marshal.
type ExtraSource interface {
	ExtraFields() map[string]json.RawMessage
}

// OverflowMatcher selects undeclared members that are always kept, even in
// strict mode.
type OverflowMatcher interface {
	IsOverflowField(name string) bool
}

// Preprocessor rewrites the members of a top level object before mapping.
type Preprocessor interface {
	PreprocessJSON(fields map[string]json.RawMessage) error
}

var (
	unmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	rawMessageType  = reflect.TypeOf(json.RawMessage(nil))
)

// Mapper converts JSON to records and back. It is safe for concurrent use.
type Mapper struct {
	strict bool
}

// New returns a mapper in strict or lenient mode.
func New(strict bool) *Mapper {
	return &Mapper{strict: strict}
}

// Strict reports whether the mapper rejects undeclared and missing members.
func (m *Mapper) Strict() bool {
	return m.strict
}

// Lenient returns a lenient mapper.
func (m *Mapper) Lenient() *Mapper {
	if !m.strict {
		return m
	}

	return New(false)
}

// DecodeObject decodes a JSON object into a new T.
func DecodeObject[T any](m *Mapper, data []byte) (*T, error) {
	var out T

	err := m.Unmarshal(data, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// DecodeArray decodes a JSON array of objects into a []T.
func DecodeArray[T any](m *Mapper, data []byte) ([]T, error) {
	var out []T

	err := m.Unmarshal(data, &out)
	if err != nil {
		return nil, err
	}

	if out == nil {
		out = []T{}
	}

	return out, nil
}

// Unmarshal decodes data into v, which must point to a struct (JSON object
// expected) or to a slice of structs (JSON array of objects expected).
// Every failure is a decode error.
func (m *Mapper) Unmarshal(data []byte, v interface{}) error {
	var raw json.RawMessage

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return libcal.NewDecodeError("JSON could not be decoded", err)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return libcal.NewDecodeError(fmt.Sprintf("cannot decode into %T", v), nil)
	}

	target := rv.Elem()

	switch target.Kind() {
	case reflect.Slice:
		return m.decodeArray(raw, target)
	case reflect.Struct:
		return m.decodeObject(raw, target)
	case reflect.Ptr:
		if target.IsNil() {
			target.Set(reflect.New(target.Type().Elem()))
		}

		return m.Unmarshal(data, target.Interface())
	default:
		return libcal.NewDecodeError(fmt.Sprintf("cannot decode into %T", v), nil)
	}
}

func (m *Mapper) decodeArray(raw json.RawMessage, target reflect.Value) error {
	if firstByte(raw) != '[' {
		return libcal.NewDecodeError("JSON is not an array", nil)
	}

	var items []json.RawMessage

	err := json.Unmarshal(raw, &items)
	if err != nil {
		return libcal.NewDecodeError("JSON could not be decoded", err)
	}

	out := reflect.MakeSlice(target.Type(), len(items), len(items))

	for i, item := range items {
		elem := out.Index(i)
		if elem.Kind() == reflect.Ptr {
			elem.Set(reflect.New(elem.Type().Elem()))
			elem = elem.Elem()
		}

		if elem.Kind() != reflect.Struct {
			return libcal.NewDecodeError(fmt.Sprintf("cannot decode array into %s", target.Type()), nil)
		}

		err = m.decodeObject(item, elem)
		if err != nil {
			return err
		}
	}

	target.Set(out)

	return nil
}

func (m *Mapper) decodeObject(raw json.RawMessage, target reflect.Value) error {
	if firstByte(raw) != '{' {
		return libcal.NewDecodeError("JSON is not an object", nil)
	}

	var fields map[string]json.RawMessage

	err := json.Unmarshal(raw, &fields)
	if err != nil {
		return libcal.NewDecodeError("JSON could not be decoded", err)
	}

	if pre, ok := target.Addr().Interface().(Preprocessor); ok {
		err = pre.PreprocessJSON(fields)
		if err != nil {
			return libcal.NewDecodeError("JSON could not be prepared", err)
		}

		raw, err = json.Marshal(fields)
		if err != nil {
			return libcal.NewDecodeError("JSON could not be prepared", err)
		}
	}

	err = json.Unmarshal(raw, target.Addr().Interface())
	if err != nil {
		return libcal.NewDecodeError("Data could not be loaded to object properties", err)
	}

	return m.walkObject(fields, target)
}

// walkObject applies the undeclared and missing member rules to one object
// and recurses into nested records.
func (m *Mapper) walkObject(fields map[string]json.RawMessage, sv reflect.Value) error {
	info := fieldsOf(sv.Type())

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		fi, ok := info.lookup(name)
		if ok {
			err := m.walkValue(fields[name], sv.FieldByIndex(fi.index))
			if err != nil {
				return err
			}

			continue
		}

		err := m.keepUndeclared(sv, name, fields[name])
		if err != nil {
			return err
		}
	}

	if !m.strict {
		return nil
	}

	for _, fi := range info.ordered {
		if !fi.required {
			continue
		}

		if _, ok := lookupField(fields, fi.name); !ok {
			return libcal.NewDecodeError(
				fmt.Sprintf("JSON property %q is missing in object of type %s", fi.name, sv.Type()), nil)
		}
	}

	return nil
}

func (m *Mapper) keepUndeclared(sv reflect.Value, name string, raw json.RawMessage) error {
	record := sv.Addr().Interface()
	setter, canKeep := record.(ExtraSetter)

	if matcher, ok := record.(OverflowMatcher); ok && canKeep && matcher.IsOverflowField(name) {
		setter.SetExtra(name, raw)

		return nil
	}

	if m.strict {
		return libcal.NewDecodeError(
			fmt.Sprintf("JSON property %q does not exist in object of type %s", name, sv.Type()), nil)
	}

	if canKeep {
		setter.SetExtra(name, raw)
	}

	return nil
}

func (m *Mapper) walkValue(raw json.RawMessage, fv reflect.Value) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) || isLeaf(fv.Type()) {
		return nil
	}

	switch fv.Kind() {
	case reflect.Ptr:
		if fv.IsNil() {
			return nil
		}

		return m.walkValue(raw, fv.Elem())

	case reflect.Struct:
		var fields map[string]json.RawMessage

		err := json.Unmarshal(raw, &fields)
		if err != nil {
			return libcal.NewDecodeError("JSON could not be decoded", err)
		}

		return m.walkObject(fields, fv)

	case reflect.Slice:
		var items []json.RawMessage

		err := json.Unmarshal(raw, &items)
		if err != nil {
			return libcal.NewDecodeError("JSON could not be decoded", err)
		}

		for i := 0; i < len(items) && i < fv.Len(); i++ {
			err = m.walkValue(items[i], fv.Index(i))
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// isLeaf reports whether values of t need no member checks.
func isLeaf(t reflect.Type) bool {
	if t == rawMessageType || reflect.PointerTo(t).Implements(unmarshalerType) {
		return true
	}

	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Array:
		return isLeaf(t.Elem())
	case reflect.Struct:
		return false
	default:
		return true
	}
}

func firstByte(raw []byte) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}

	return trimmed[0]
}

// Marshal encodes v and writes kept members back into every record, nested
// ones included. Values implementing json.Marshaler encode themselves.
func (m *Mapper) Marshal(v interface{}) ([]byte, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, libcal.NewDecodeError("JSON could not be encoded", err)
	}

	if _, ok := v.(json.Marshaler); ok {
		return out, nil
	}

	var extras []extraAt

	collectExtras(reflect.ValueOf(v), "", &extras)

	for _, e := range extras {
		out, err = sjson.SetRawBytes(out, e.path, e.raw)
		if err != nil {
			return nil, libcal.NewDecodeError("JSON could not be encoded", err)
		}
	}

	return out, nil
}

type extraAt struct {
	path string
	raw  json.RawMessage
}

func collectExtras(rv reflect.Value, prefix string, out *[]extraAt) {
	if !rv.IsValid() {
		return
	}

	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return
		}

		collectExtras(rv.Elem(), prefix, out)

	case reflect.Slice, reflect.Array:
		if isLeaf(rv.Type()) {
			return
		}

		for i := 0; i < rv.Len(); i++ {
			collectExtras(rv.Index(i), join(prefix, fmt.Sprint(i)), out)
		}

	case reflect.Struct:
		if isLeaf(rv.Type()) {
			return
		}

		if rv.CanAddr() {
			if src, ok := rv.Addr().Interface().(ExtraSource); ok {
				appendExtras(src, prefix, out)
			}
		} else {
			// Values passed by value are not addressable; copy to read the bag.
			cp := reflect.New(rv.Type())
			cp.Elem().Set(rv)
			collectExtras(cp.Elem(), prefix, out)

			return
		}

		for _, fi := range fieldsOf(rv.Type()).ordered {
			fv := rv.FieldByIndex(fi.index)
			if fi.omitEmpty && fv.IsZero() {
				continue
			}

			collectExtras(fv, join(prefix, escapePath(fi.name)), out)
		}
	}
}

func appendExtras(src ExtraSource, prefix string, out *[]extraAt) {
	fields := src.ExtraFields()

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		*out = append(*out, extraAt{path: join(prefix, escapePath(name)), raw: fields[name]})
	}
}

func join(prefix, part string) string {
	if prefix == "" {
		return part
	}

	return prefix + "." + part
}

// escapePath escapes the characters sjson treats as path syntax.
func escapePath(name string) string {
	var b strings.Builder

	for _, r := range name {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', ':', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}

		b.WriteRune(r)
	}

	return b.String()
}

type fieldInfo struct {
	name      string
	index     []int
	required  bool
	omitEmpty bool
}

type structInfo struct {
	byName  map[string]fieldInfo
	ordered []fieldInfo
}

func (s *structInfo) lookup(name string) (fieldInfo, bool) {
	if fi, ok := s.byName[name]; ok {
		return fi, true
	}

	// encoding/json matches member names case-insensitively.
	for _, fi := range s.ordered {
		if strings.EqualFold(fi.name, name) {
			return fi, true
		}
	}

	return fieldInfo{}, false
}

func lookupField(fields map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if raw, ok := fields[name]; ok {
		return raw, true
	}

	for k, raw := range fields {
		if strings.EqualFold(k, name) {
			return raw, true
		}
	}

	return nil, false
}

var structCache sync.Map // map[reflect.Type]*structInfo

func fieldsOf(t reflect.Type) *structInfo {
	if cached, ok := structCache.Load(t); ok {
		return cached.(*structInfo)
	}

	info := &structInfo{byName: make(map[string]fieldInfo)}
	collectFields(t, nil, info)

	actual, _ := structCache.LoadOrStore(t, info)

	return actual.(*structInfo)
}

func collectFields(t reflect.Type, index []int, info *structInfo) {
	for i := range t.NumField() {
		f := t.Field(i)

		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		idx := append(append([]int(nil), index...), i)

		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}

			if ft.Kind() == reflect.Struct {
				collectFields(ft, idx, info)

				continue
			}
		}

		if !f.IsExported() {
			continue
		}

		if name == "" {
			name = f.Name
		}

		omitEmpty := strings.Contains(opts, "omitempty")
		fi := fieldInfo{name: name, index: idx, required: !omitEmpty, omitEmpty: omitEmpty}

		info.byName[name] = fi
		info.ordered = append(info.ordered, fi)
	}
}
