// Package pdfedit removes pages from in-memory PDF documents.
package pdfedit

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var (
	ErrPageOutOfRange = errors.New("page number out of range")
	ErrEmptyDocument  = errors.New("removing pages would leave an empty document")
)

// RemovePages returns a copy of pdf with the given 1-based pages removed.
// The input page numbers may be unsorted and may contain duplicates; every
// number must reference a valid page. A pure transform: the input slice and
// buffer are never modified.
func RemovePages(pdf []byte, pages []int) ([]byte, error) {
	if len(pages) == 0 {
		return pdf, nil
	}

	count, err := pageCount(pdf)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	targets, err := removalPlan(pages, count)
	if err != nil {
		return nil, err
	}

	// The underlying primitive deletes one page per pass, so each removal
	// shifts every later page down by one. targets already carries the
	// adjusted physical indices.
	buf := pdf
	for _, physical := range targets {
		var out bytes.Buffer
		if err := api.RemovePages(bytes.NewReader(buf), &out, []string{strconv.Itoa(physical)}, nil); err != nil {
			return nil, fmt.Errorf("remove page %d: %w", physical, err)
		}
		buf = out.Bytes()
	}
	return buf, nil
}

// removalPlan validates pages against the document's page count and returns
// the physical 1-based indices to delete one at a time: sorted ascending,
// de-duplicated, with page k after j prior removals targeting index k-j.
func removalPlan(pages []int, count int) ([]int, error) {
	seen := make(map[int]bool, len(pages))
	uniq := make([]int, 0, len(pages))
	for _, p := range pages {
		if p < 1 || p > count {
			return nil, fmt.Errorf("%w: page %d of a %d-page document", ErrPageOutOfRange, p, count)
		}
		if !seen[p] {
			seen[p] = true
			uniq = append(uniq, p)
		}
	}
	sort.Ints(uniq)

	if len(uniq) >= count {
		return nil, ErrEmptyDocument
	}

	targets := make([]int, len(uniq))
	for i, p := range uniq {
		targets[i] = p - i
	}
	return targets, nil
}

func pageCount(pdf []byte) (int, error) {
	r, err := pdflib.NewReader(bytes.NewReader(pdf), int64(len(pdf)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}
