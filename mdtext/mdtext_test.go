package mdtext

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParagraphs(t *testing.T) {
	src := []byte("# Terms\n\nPayment is due\nwithin *30 days*.\n\n- Bank: `DE00 1234`\n- Reference: invoice number\n\n---\n\nThank you!\n")
	got, err := Paragraphs(src)
	if err != nil {
		t.Fatalf("Paragraphs error: %v", err)
	}
	want := []string{
		"Terms",
		"Payment is due within 30 days.",
		"• Bank: DE00 1234",
		"• Reference: invoice number",
		"",
		"Thank you!",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("段落展平结果不符 (-want +got):\n%s", diff)
	}
}

func TestTextJoinsWithNewline(t *testing.T) {
	got, err := Text([]byte("one\n\n*two*"))
	if err != nil {
		t.Fatalf("Text error: %v", err)
	}
	if got != "one\ntwo" {
		t.Fatalf("Text = %q", got)
	}
}
