package parser

import (
	"context"
	"testing"
)

func TestRegistrySelectsSpecificParserBeforeGeneric(t *testing.T) {
	reg := NewRegistry(PresentationParser{}, DocumentParser{})
	p, ok := reg.Select("application/vnd.openxmlformats-officedocument.presentationml.presentation")
	if !ok {
		t.Fatal("expected a parser match")
	}
	if _, isPresentation := p.(PresentationParser); !isPresentation {
		t.Fatalf("expected PresentationParser to win ordering, got %T", p)
	}
}

func TestRegistryParseRejectsEmptyContent(t *testing.T) {
	reg := NewRegistry(TextParser{})
	_, err := reg.Parse(context.Background(), "text/plain", "empty.txt", []byte("   \n  "))
	if err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestJSONParserSplitsJSONL(t *testing.T) {
	p := JSONParser{}
	data := []byte("{\"a\":1}\n{\"a\":2}\n")
	res, err := p.Parse(context.Background(), "data.jsonl", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Metadata["jsonMode"] != "jsonl" {
		t.Fatalf("expected jsonl mode, got %s", res.Metadata["jsonMode"])
	}
	if res.Metadata["recordCount"] != "2" {
		t.Fatalf("expected 2 records, got %s", res.Metadata["recordCount"])
	}
}

func TestExtractVideoIDHandlesAllForms(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=abc123XYZ":  "abc123XYZ",
		"https://youtu.be/abc123XYZ":                 "abc123XYZ",
		"https://www.youtube.com/embed/abc123XYZ":     "abc123XYZ",
		"https://www.youtube.com/v/abc123XYZ":         "abc123XYZ",
	}
	for in, want := range cases {
		got, err := ExtractVideoID(in)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", in, err)
		}
		if got != want {
			t.Fatalf("for %s expected %s, got %s", in, want, got)
		}
	}
}
