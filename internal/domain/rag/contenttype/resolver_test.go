package contenttype

import "testing"

func TestResolveByExtension(t *testing.T) {
	if got := Resolve("report.pdf", nil, ""); got != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", got)
	}
}

func TestResolveFallsBackToClientType(t *testing.T) {
	got := Resolve("data.unknownext", nil, "application/custom-thing")
	if got != "application/custom-thing" {
		t.Fatalf("expected client type passthrough, got %s", got)
	}
}

func TestResolveDefaultsToOctetStream(t *testing.T) {
	got := Resolve("mystery.unknownext", nil, "")
	if got != Octet {
		t.Fatalf("expected octet-stream default, got %s", got)
	}
}

func TestResolveSniffsContentWhenExtensionUnknown(t *testing.T) {
	pngMagic := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	got := Resolve("blob", pngMagic, "")
	if got != "image/png" {
		t.Fatalf("expected image/png via sniffing, got %s", got)
	}
}
