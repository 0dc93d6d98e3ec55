package pagination

import (
	"net/http/httptest"
	"testing"
)

func TestFromRequest(t *testing.T) {
	cases := map[string]int{
		"/admin/accounts":         1,
		"/admin/accounts?page=3":  3,
		"/admin/accounts?page=0":  1,
		"/admin/accounts?page=-2": 1,
		"/admin/accounts?page=x":  1,
	}
	for target, want := range cases {
		params := FromRequest(httptest.NewRequest("GET", target, nil))
		if params.Page != want {
			t.Fatalf("%s: got page %d, want %d", target, params.Page, want)
		}
		if params.Limit != PageSize || params.Offset != (want-1)*PageSize {
			t.Fatalf("%s: unexpected params %#v", target, params)
		}
	}
}

func TestGetMeta(t *testing.T) {
	meta := GetMeta(NewParams(2), 25)
	if meta.TotalPages != 3 || !meta.HasNext || !meta.HasPrev {
		t.Fatalf("unexpected meta %#v", meta)
	}
	meta = GetMeta(NewParams(1), 0)
	if meta.TotalPages != 1 || meta.HasNext || meta.HasPrev {
		t.Fatalf("unexpected empty meta %#v", meta)
	}
}

func TestBounds(t *testing.T) {
	if s, e := Bounds(NewParams(1), 25); s != 0 || e != 10 {
		t.Fatalf("page 1: %d %d", s, e)
	}
	if s, e := Bounds(NewParams(3), 25); s != 20 || e != 25 {
		t.Fatalf("page 3: %d %d", s, e)
	}
	if s, e := Bounds(NewParams(9), 25); s != 25 || e != 25 {
		t.Fatalf("past end: %d %d", s, e)
	}
}
