package logging

import "testing"

func TestMaskField(t *testing.T) {
	if attr := MaskField("caller", "user:ada"); attr.Value.String() != RedactedValue {
		t.Fatalf("caller not masked: %s", attr.Value.String())
	}
	if attr := MaskField("route", "rewards.claim"); attr.Value.String() != "rewards.claim" {
		t.Fatalf("allowlisted key masked: %s", attr.Value.String())
	}
	if attr := MaskField("token", ""); attr.Value.String() != "" {
		t.Fatalf("empty value rewritten: %s", attr.Value.String())
	}
}

func TestRedactionAllowlistIsStable(t *testing.T) {
	keys := RedactionAllowlist()
	if len(keys) == 0 {
		t.Fatal("allowlist empty")
	}
	for _, key := range keys {
		if !IsAllowlisted(key) {
			t.Fatalf("%s reported non-allowlisted", key)
		}
	}
	if IsAllowlisted("authorization") {
		t.Fatal("authorization must never be allowlisted")
	}
}
