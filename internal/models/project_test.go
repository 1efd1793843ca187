package models

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestProjectPatch_MergeAndApply(t *testing.T) {
	name := "Picnic"
	older := &ProjectPatch{Name: &name}
	older.Merge(RolesPatch([]string{"Cook"}))
	older.Merge(RolesPatch([]string{"Cook", "Greeter"}))

	p := &Project{ID: "p1", Name: "Old", StartTime: 9, EndTime: 11}
	older.Apply(p)

	if p.Name != "Picnic" {
		t.Errorf("Name = %q, want Picnic", p.Name)
	}
	if !reflect.DeepEqual(p.Roles, []string{"Cook", "Greeter"}) {
		t.Errorf("Roles = %v, want [Cook Greeter]", p.Roles)
	}
	if p.StartTime != 9 || p.EndTime != 11 {
		t.Errorf("window changed to %d-%d", p.StartTime, p.EndTime)
	}
}

func TestProjectPatch_EmptyRolesIsSet(t *testing.T) {
	patch := RolesPatch(nil)
	if patch.IsEmpty() {
		t.Fatal("clearing roles must not be an empty patch")
	}
	p := &Project{Roles: []string{"Cook"}}
	patch.Apply(p)
	if len(p.Roles) != 0 {
		t.Errorf("Roles = %v, want empty", p.Roles)
	}
}

func TestProjectPatch_IsEmpty(t *testing.T) {
	var nilPatch *ProjectPatch
	if !nilPatch.IsEmpty() {
		t.Error("nil patch should be empty")
	}
	if !(&ProjectPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
	if GridPatch(nil).IsEmpty() {
		t.Error("grid patch should not be empty")
	}
}

func TestProject_Clone(t *testing.T) {
	p := &Project{
		ID:            "p1",
		Roles:         []string{"Cook"},
		VolunteerData: NewGrid([]string{"09:00"}, []string{"Cook"}),
	}
	c := p.Clone()
	c.Roles[0] = "Greeter"
	c.VolunteerData.Set("09:00", "Cook", Assigned("Alice"))

	if p.Roles[0] != "Cook" {
		t.Error("clone shares roles")
	}
	if p.VolunteerData.Get("09:00", "Cook").IsAssigned() {
		t.Error("clone shares grid")
	}
}

func TestLocalID(t *testing.T) {
	id := NewLocalID(time.UnixMilli(1700000000123))
	if id != "local_1700000000123" {
		t.Errorf("NewLocalID = %q", id)
	}
	if !IsLocalID(id) {
		t.Error("IsLocalID should accept minted id")
	}
	if IsLocalID("65a1f0c2e4b0a1b2c3d4e5f6") {
		t.Error("IsLocalID should reject remote id")
	}
}

func TestProject_JSONKeepsEmptyGrid(t *testing.T) {
	data, err := json.Marshal(&Project{ID: "p1", Roles: []string{}, VolunteerData: Grid{}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Project
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.VolunteerData == nil {
		t.Errorf("empty grid decoded as nil from %s", data)
	}
}
