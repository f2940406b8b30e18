package util

import "testing"

func TestTitleFromFilename(t *testing.T) {
	cases := map[string]string{
		"the_hound-of_the_baskervilles.pdf": "The Hound Of The Baskervilles",
		"A_STUDY_IN_SCARLET.PDF":            "A Study In Scarlet",
		"/books/sign-of-four.pdf":           "Sign Of Four",
		"2nd_stain.pdf":                     "2Nd Stain",
		"plain":                             "Plain",
	}
	for in, want := range cases {
		if got := TitleFromFilename(in); got != want {
			t.Fatalf("title %q: got %q want %q", in, got, want)
		}
	}
}
