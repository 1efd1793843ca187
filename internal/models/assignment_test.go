package models

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestAssignment_Variants(t *testing.T) {
	a := Assigned("Alice")
	name, ok := a.Volunteer()
	if !ok || name != "Alice" {
		t.Errorf("Volunteer() = (%q, %v), want (Alice, true)", name, ok)
	}

	u := Unassigned()
	if u.IsAssigned() {
		t.Error("Unassigned() should not be assigned")
	}
	if Assigned("") != u {
		t.Error("Assigned(\"\") should equal Unassigned()")
	}
	var zero Assignment
	if zero != u {
		t.Error("zero value should be Unassigned")
	}
}

func TestAssignment_JSONWireShape(t *testing.T) {
	grid := Grid{
		"09:00": {"Cook": Unassigned()},
		"10:00": {"Cook": Assigned("Alice")},
	}

	data, err := json.Marshal(grid)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"09:00":{"Cook":false},"10:00":{"Cook":"Alice"}}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestAssignment_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    Assignment
		wantErr bool
	}{
		{`false`, Unassigned(), false},
		{`null`, Unassigned(), false},
		{`"Bob"`, Assigned("Bob"), false},
		{`""`, Unassigned(), false},
		{`true`, Assignment{}, true},
		{`42`, Assignment{}, true},
	}

	for _, tt := range tests {
		var got Assignment
		err := json.Unmarshal([]byte(tt.input), &got)
		if (err != nil) != tt.wantErr {
			t.Errorf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestAssignment_BSON(t *testing.T) {
	type doc struct {
		Grid Grid `bson:"grid"`
	}
	in := doc{Grid: Grid{"09:00": {"Cook": Assigned("Alice"), "Greeter": Unassigned()}}}

	raw, err := bson.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var generic bson.M
	if err := bson.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("unmarshal generic: %v", err)
	}
	cells := generic["grid"].(bson.M)["09:00"].(bson.M)
	if cells["Cook"] != "Alice" {
		t.Errorf("stored Cook = %v, want Alice", cells["Cook"])
	}
	if cells["Greeter"] != false {
		t.Errorf("stored Greeter = %v, want false", cells["Greeter"])
	}

	var out doc
	if err := bson.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Grid.Get("09:00", "Cook") != Assigned("Alice") {
		t.Errorf("Cook = %v, want Alice", out.Grid.Get("09:00", "Cook"))
	}
	if out.Grid.Get("09:00", "Greeter").IsAssigned() {
		t.Error("Greeter should be unassigned")
	}
}
