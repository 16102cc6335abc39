// Package pageselect parses user-facing page selection specifications into
// concrete page indices.
//
// The grammar is a comma-separated list of terms, each a 1-based page
// number N, a closed range N-M, an open-ended range N- (N through the last
// page), or the case-insensitive literal "all". An empty specification
// selects every page.
package pageselect

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// Selection is a resolved, strictly ascending, duplicate-free sequence of
// 0-based page indices into a single document.
type Selection []int

// Contiguous reports whether the selection is a single unbroken run.
func (s Selection) Contiguous() bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[i-1]+1 {
			return false
		}
	}
	return true
}

// BoundingRun returns the minimal contiguous run covering the selection,
// still 0-based. Used where an operation cannot honor gaps.
func (s Selection) BoundingRun() Selection {
	if len(s) == 0 {
		return nil
	}
	run := make(Selection, 0, s[len(s)-1]-s[0]+1)
	for p := s[0]; p <= s[len(s)-1]; p++ {
		run = append(run, p)
	}
	return run
}

// Resolve parses spec against a document of pageCount pages.
//
// Recovery rules: out-of-range pages are dropped with a warning; a spec
// that resolves to nothing (including a malformed spec) falls back to all
// pages with a warning. Resolve never fails for an owning placeholder —
// the worst outcome is the full document.
func Resolve(spec string, pageCount int, log *slog.Logger) Selection {
	if log == nil {
		log = slog.Default()
	}
	if pageCount <= 0 {
		return nil
	}

	spec = strings.TrimSpace(spec)
	if spec == "" || strings.EqualFold(spec, "all") {
		return allPages(pageCount)
	}

	pages, err := parse(spec, pageCount)
	if err != nil {
		log.Warn("invalid page specification, using all pages", "spec", spec, "error", err)
		return allPages(pageCount)
	}

	filtered := filterValid(pages, pageCount, spec, log)
	if len(filtered) == 0 {
		log.Warn("page specification selects no valid pages, using all pages", "spec", spec)
		return allPages(pageCount)
	}
	return filtered
}

// parse expands spec into 1-based page numbers, in spec order, unvalidated
// against pageCount except for open-ended ranges which need the last page.
func parse(spec string, pageCount int) ([]int, error) {
	var pages []int

	for _, term := range strings.Split(spec, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			return nil, fmt.Errorf("empty term")
		}

		if idx := strings.Index(term, "-"); idx >= 0 {
			start, err := parsePageNumber(term[:idx])
			if err != nil {
				return nil, fmt.Errorf("range %q: %w", term, err)
			}

			rest := strings.TrimSpace(term[idx+1:])
			end := pageCount
			if rest != "" {
				if end, err = parsePageNumber(rest); err != nil {
					return nil, fmt.Errorf("range %q: %w", term, err)
				}
			}
			if end < start {
				return nil, fmt.Errorf("range %q: start exceeds end", term)
			}
			for p := start; p <= end; p++ {
				pages = append(pages, p)
			}
			continue
		}

		p, err := parsePageNumber(term)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}

	return pages, nil
}

func parsePageNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid page number %q", s)
	}
	if n < 1 {
		return 0, fmt.Errorf("page numbers are 1-based, got %d", n)
	}
	return n, nil
}

// filterValid converts 1-based pages to a deduplicated, ascending 0-based
// selection, dropping anything beyond pageCount.
func filterValid(pages []int, pageCount int, spec string, log *slog.Logger) Selection {
	seen := make(map[int]bool, len(pages))
	var sel Selection
	for _, p := range pages {
		if p > pageCount {
			log.Warn("dropping out-of-range page", "spec", spec, "page", p, "page_count", pageCount)
			continue
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		sel = append(sel, p-1)
	}
	sort.Ints(sel)
	return sel
}

func allPages(pageCount int) Selection {
	sel := make(Selection, pageCount)
	for i := range sel {
		sel[i] = i
	}
	return sel
}
