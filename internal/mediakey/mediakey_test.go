package mediakey

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name    string
		wantKey string
		wantSeq int
	}{
		{"IMG_01.JPG", "img_01.jpg", 0},
		{"IMG_01(1).JPG", "img_01.jpg", 1},
		{"IMG_01 (2).JPG", "img_01.jpg", 2},
		{"img_01.jpg", "img_01.jpg", 0},
		{"Vacation/IMG_01.JPG", "img_01.jpg", 0},
		{"Vacation\\IMG_01.JPG", "img_01.jpg", 0},
		{"  IMG_02.HEIC ", "img_02.heic", 0},
		{"clip(10).MOV", "clip.mov", 10},
		{"paren(thesis).jpg", "paren(thesis).jpg", 0},
		{"noext", "noext", 0},
		{"noext(3)", "noext", 3},
	}

	for _, tc := range cases {
		key, seq := Normalize(tc.name)
		if key != tc.wantKey || seq != tc.wantSeq {
			t.Errorf("Normalize(%q) = (%q, %d), want (%q, %d)", tc.name, key, seq, tc.wantKey, tc.wantSeq)
		}
	}
}

func TestKeyMatchesAcrossCopies(t *testing.T) {
	if Key("IMG_01.JPG") != Key("IMG_01(1).JPG") {
		t.Fatal("expected original and duplicate copy to share a key")
	}
	if Key("IMG_01.JPG") == Key("IMG_02.JPG") {
		t.Fatal("distinct items must not share a key")
	}
}

func TestDisambiguate(t *testing.T) {
	cases := []struct {
		name string
		seq  int
		want string
	}{
		{"IMG_01.JPG", 0, "IMG_01.JPG"},
		{"IMG_01.JPG", 2, "IMG_01(2).JPG"},
		{"IMG_01(1).JPG", 3, "IMG_01(3).JPG"},
		{"noext", 1, "noext(1)"},
	}
	for _, tc := range cases {
		if got := Disambiguate(tc.name, tc.seq); got != tc.want {
			t.Errorf("Disambiguate(%q, %d) = %q, want %q", tc.name, tc.seq, got, tc.want)
		}
	}
}
