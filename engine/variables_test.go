package engine

import "testing"

func TestVariablesExpand(t *testing.T) {
	v := NewVariables()
	v.Set("region", "'north'")
	v.Set("lim", "10")

	got := v.Expand("SELECT * FROM sales WHERE region = :region LIMIT :lim")
	want := "SELECT * FROM sales WHERE region = 'north' LIMIT 10"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestVariablesExpandLongestFirst(t *testing.T) {
	v := NewVariables()
	v.Set("user", "alice")
	v.Set("username", "bob")

	got := v.Expand("SELECT :username, :user")
	want := "SELECT bob, alice"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestVariablesLifecycle(t *testing.T) {
	v := NewVariables()
	v.Set("x", "1")

	if val, ok := v.Get("x"); !ok || val != "1" {
		t.Errorf("Get(x) = %q, %v", val, ok)
	}

	v.Unset("x")
	if _, ok := v.Get("x"); ok {
		t.Error("x should be gone after Unset")
	}

	v.Set("b", "2")
	v.Set("a", "1")
	list := v.List()
	if len(list) != 2 || list[0] != "a = '1'" {
		t.Errorf("got list %v", list)
	}
}
