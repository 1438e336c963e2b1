package wal

import (
	"github.com/cockroachdb/errors"
	"github.com/sugawarayuuta/sonnet"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"hotswap/domain/settings"
)

// Codec turns mutations into journal or event payloads and back.
type Codec interface {
	Encode(settings.Mutation) ([]byte, error)
	Decode([]byte) (settings.Mutation, error)
}

// ---------- Protobuf ----------

// ProtoCodec encodes mutations as a google.protobuf.Struct. It is the
// journal format.
type ProtoCodec struct{}

func (ProtoCodec) Encode(m settings.Mutation) ([]byte, error) {
	fields := map[string]any{
		"op":    m.Op.String(),
		"key":   m.Key,
		"value": m.Value,
	}
	if m.Values != nil {
		vals := make(map[string]any, len(m.Values))
		for k, v := range m.Values {
			vals[k] = v
		}
		fields["values"] = vals
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errors.Wrap(err, "wal: build mutation struct")
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(s)
}

func (ProtoCodec) Decode(b []byte) (settings.Mutation, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return settings.Mutation{}, errors.Wrap(err, "wal: decode mutation")
	}
	f := s.GetFields()
	op, err := settings.ParseOp(f["op"].GetStringValue())
	if err != nil {
		return settings.Mutation{}, err
	}
	m := settings.Mutation{
		Op:    op,
		Key:   f["key"].GetStringValue(),
		Value: f["value"].GetStringValue(),
	}
	if sv := f["values"].GetStructValue(); sv != nil {
		m.Values = make(map[string]string, len(sv.GetFields()))
		for k, v := range sv.GetFields() {
			m.Values[k] = v.GetStringValue()
		}
	}
	return m, m.Validate()
}

// ---------- JSON ----------

// JSONCodec is the wire format of Kafka change events and feed input.
type JSONCodec struct{}

type jsonMutation struct {
	Op     string            `json:"op"`
	Key    string            `json:"key,omitempty"`
	Value  string            `json:"value,omitempty"`
	Values map[string]string `json:"values,omitempty"`
}

func (JSONCodec) Encode(m settings.Mutation) ([]byte, error) {
	return sonnet.Marshal(jsonMutation{
		Op:     m.Op.String(),
		Key:    m.Key,
		Value:  m.Value,
		Values: m.Values,
	})
}

func (JSONCodec) Decode(b []byte) (settings.Mutation, error) {
	var j jsonMutation
	if err := sonnet.Unmarshal(b, &j); err != nil {
		return settings.Mutation{}, errors.Wrap(err, "wal: decode json mutation")
	}
	op, err := settings.ParseOp(j.Op)
	if err != nil {
		return settings.Mutation{}, err
	}
	m := settings.Mutation{Op: op, Key: j.Key, Value: j.Value, Values: j.Values}
	return m, m.Validate()
}
