package graph

import "testing"

var members = []string{"PaperResearcher", "LinkedInCreator"}

func TestParseRoute_JSON(t *testing.T) {
	r := ParseRoute(`{"next": "LinkedInCreator"}`, members)
	if r.Finish || r.Member != "LinkedInCreator" {
		t.Fatalf("ParseRoute = %+v", r)
	}
}

func TestParseRoute_JSONFinish(t *testing.T) {
	r := ParseRoute(`{"next": "FINISH"}`, members)
	if !r.Finish {
		t.Fatalf("ParseRoute = %+v, want Finish", r)
	}
}

func TestParseRoute_TextFallback(t *testing.T) {
	r := ParseRoute("I think PaperResearcher should go next.", members)
	if r.Member != "PaperResearcher" {
		t.Fatalf("ParseRoute = %+v", r)
	}
}

func TestParseRoute_AmbiguousDefaultsFinish(t *testing.T) {
	r := ParseRoute("Both PaperResearcher and LinkedInCreator are mentioned here.", members)
	if !r.Finish {
		t.Fatalf("ParseRoute = %+v, want Finish on ambiguity", r)
	}
}

func TestParseRoute_GarbageDefaultsFinish(t *testing.T) {
	r := ParseRoute("not json and no member mentioned", members)
	if !r.Finish {
		t.Fatalf("ParseRoute = %+v, want Finish", r)
	}
}
