package extract

import (
	"reflect"
	"testing"
)

func TestLinks(t *testing.T) {
	text := `See https://www.Example.com/a/?utm=1, and (http://example.com/a) plus "https://other.org/x." ` +
		`or <https://third.net/path/>`
	got := Links(text)
	want := []string{
		"https://example.com/a",
		"https://other.org/x",
		"https://third.net/path",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Links = %v, want %v", got, want)
	}
}

func TestLinksEmpty(t *testing.T) {
	if got := Links("no links here"); len(got) != 0 {
		t.Errorf("Links = %v, want none", got)
	}
}
