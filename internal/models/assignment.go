package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// Assignment is the value of one roster cell: either Assigned(name) or
// Unassigned. The zero value is Unassigned.
//
// On the wire an unassigned cell is encoded as false and an assigned one as
// the volunteer's name, which keeps stored documents readable by older
// clients.
type Assignment struct {
	volunteer string
}

// Assigned returns a cell holding name. An empty name is Unassigned.
func Assigned(name string) Assignment {
	return Assignment{volunteer: name}
}

// Unassigned returns an empty cell.
func Unassigned() Assignment {
	return Assignment{}
}

// Volunteer returns the assigned name and whether the cell is assigned.
func (a Assignment) Volunteer() (string, bool) {
	return a.volunteer, a.volunteer != ""
}

// IsAssigned reports whether the cell holds a volunteer.
func (a Assignment) IsAssigned() bool {
	return a.volunteer != ""
}

func (a Assignment) String() string {
	if a.volunteer == "" {
		return "<unassigned>"
	}
	return a.volunteer
}

// MarshalJSON implements json.Marshaler.
func (a Assignment) MarshalJSON() ([]byte, error) {
	if a.volunteer == "" {
		return []byte("false"), nil
	}
	return json.Marshal(a.volunteer)
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Assignment) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*a = Unassigned()
		return nil
	case len(data) > 0 && data[0] == '"':
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return fmt.Errorf("decode assignment: %w", err)
		}
		*a = Assigned(name)
		return nil
	default:
		return fmt.Errorf("decode assignment: unexpected value %s", data)
	}
}

// MarshalBSONValue implements bson.ValueMarshaler.
func (a Assignment) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if a.volunteer == "" {
		return bsontype.Boolean, bsoncore.AppendBoolean(nil, false), nil
	}
	return bsontype.String, bsoncore.AppendString(nil, a.volunteer), nil
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (a *Assignment) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Boolean, bsontype.Null, bsontype.Undefined:
		*a = Unassigned()
		return nil
	case bsontype.String:
		name, _, ok := bsoncore.ReadString(data)
		if !ok {
			return fmt.Errorf("decode assignment: malformed string")
		}
		*a = Assigned(name)
		return nil
	default:
		return fmt.Errorf("decode assignment: unexpected bson type %s", t)
	}
}
