package cache

import "testing"

func TestKeySortsParameters(t *testing.T) {
	t.Parallel()

	a := Key("getProfile", map[string]string{"userId": "u1", "locale": "en"})
	b := Key("getProfile", map[string]string{"locale": "en", "userId": "u1"})
	if a != b {
		t.Fatalf("key differs by declaration order: %q vs %q", a, b)
	}
	want := `getProfile:{"locale":"en","userId":"u1"}`
	if a != want {
		t.Fatalf("key = %q, want %q", a, want)
	}
}

func TestKeyNoParams(t *testing.T) {
	t.Parallel()

	if got := Key("listReserved", nil); got != "listReserved:{}" {
		t.Fatalf("key = %q", got)
	}
}

func TestKeyEscapesQuotes(t *testing.T) {
	t.Parallel()

	got := Key("op", map[string]string{"q": `a"b`})
	want := `op:{"q":"a\"b"}`
	if got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}
}

func TestKeyDistinguishesOperations(t *testing.T) {
	t.Parallel()

	params := map[string]string{"username": "jane"}
	if Key("checkUsername", params) == Key("getProfileBySlug", params) {
		t.Fatalf("different operations produced the same key")
	}
}
