package pdfedit

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	pdflib "github.com/ledongthuc/pdf"
)

func TestRemovalPlan_AscendingOffsets(t *testing.T) {
	// Deleting pages 3, 5, 7 of a 10-page document one at a time: after
	// removing page 3, page 5 sits at index 4; after that, page 7 sits at 5.
	targets, err := removalPlan([]int{3, 5, 7}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{3, 4, 5}
	if !reflect.DeepEqual(targets, want) {
		t.Errorf("expected targets %v, got %v", want, targets)
	}
}

func TestRemovalPlan_UnsortedInput(t *testing.T) {
	targets, err := removalPlan([]int{7, 3, 5}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{3, 4, 5}
	if !reflect.DeepEqual(targets, want) {
		t.Errorf("expected unsorted input to yield %v, got %v", want, targets)
	}
}

func TestRemovalPlan_DuplicatesCollapse(t *testing.T) {
	targets, err := removalPlan([]int{5, 3, 3, 5}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{3, 4}
	if !reflect.DeepEqual(targets, want) {
		t.Errorf("expected duplicates to collapse to %v, got %v", want, targets)
	}
}

func TestRemovalPlan_FirstAndLastPage(t *testing.T) {
	targets, err := removalPlan([]int{1, 10}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Page 10 sits at index 9 once page 1 is gone.
	want := []int{1, 9}
	if !reflect.DeepEqual(targets, want) {
		t.Errorf("expected %v, got %v", want, targets)
	}
}

func TestRemovalPlan_PageOutOfRange(t *testing.T) {
	for _, page := range []int{0, -1, 11} {
		_, err := removalPlan([]int{page}, 10)
		if !errors.Is(err, ErrPageOutOfRange) {
			t.Errorf("page %d: expected ErrPageOutOfRange, got %v", page, err)
		}
	}
}

func TestRemovalPlan_EmptyDocument(t *testing.T) {
	_, err := removalPlan([]int{1, 2, 3}, 3)
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}

	// Duplicates must not mask the empty-document case.
	_, err = removalPlan([]int{1, 1, 2, 2}, 2)
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument with duplicated input, got %v", err)
	}
}

func TestRemovePages_NoPagesIsNoop(t *testing.T) {
	pdf := []byte("%PDF-1.4 not actually parsed")
	out, err := RemovePages(pdf, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if &out[0] != &pdf[0] {
		t.Error("expected input buffer to be returned unchanged")
	}
}

func TestRemovePages_InvalidPDF(t *testing.T) {
	_, err := RemovePages([]byte("not a pdf"), []int{1})
	if err == nil {
		t.Fatal("expected an error for invalid pdf bytes")
	}
}

// buildPDF writes a minimal n-page document where page i carries the text
// marker PGi, so tests can fingerprint which pages survive a removal.
func buildPDF(n int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	var offsets []int
	addObj := func(id int, body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, body)
	}

	kids := make([]string, n)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	addObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	addObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	addObj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	for i := 1; i <= n; i++ {
		pageID := 2 + 2*i
		contentID := pageID + 1
		addObj(pageID, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			contentID))
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (PG%d) Tj ET", i)
		addObj(contentID, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefOffset)
	return buf.Bytes()
}

// pageMarkers extracts the text of every page in order.
func pageMarkers(t *testing.T, pdf []byte) []string {
	t.Helper()
	r, err := pdflib.NewReader(bytes.NewReader(pdf), int64(len(pdf)))
	if err != nil {
		t.Fatalf("read result pdf: %v", err)
	}
	markers := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		text, err := r.Page(i).GetPlainText(nil)
		if err != nil {
			t.Fatalf("extract page %d text: %v", i, err)
		}
		markers = append(markers, strings.TrimSpace(text))
	}
	return markers
}

func TestRemovePages_RetainedPageContent(t *testing.T) {
	doc := buildPDF(10)
	want := []string{"PG1", "PG2", "PG4", "PG6", "PG8", "PG9", "PG10"}

	tests := []struct {
		name  string
		pages []int
	}{
		{"sorted", []int{3, 5, 7}},
		{"unsorted", []int{7, 3, 5}},
		{"duplicates", []int{5, 3, 3, 5, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RemovePages(doc, tt.pages)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := pageMarkers(t, out)
			if len(got) != len(want) {
				t.Fatalf("expected %d pages, got %d: %v", len(want), len(got), got)
			}
			// Identify each retained page by its content, not just the count.
			for i, marker := range want {
				if !strings.Contains(got[i], marker) {
					t.Errorf("page %d: expected marker %q, got %q", i+1, marker, got[i])
				}
			}
		})
	}
}

func TestRemovePages_InputBufferUntouched(t *testing.T) {
	doc := buildPDF(3)
	before := string(doc)
	if _, err := RemovePages(doc, []int{2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(doc) != before {
		t.Error("input buffer was modified")
	}
}
