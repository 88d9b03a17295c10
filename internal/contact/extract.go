// Package contact extracts delivery contact details from a free-text chat line.
//
// Input loosely follows "name, phone, address" but fields may be missing,
// reordered or noisy. The phone number is the most reliable token, so it is
// found first and used as an anchor: segments before it form the name and
// segments after it form the address. Positional rules only fill gaps the
// anchor left; they never override a value that was already found.
//
// Extract is pure and deterministic.
package contact

import (
	"strings"

	"github.com/BTreeMap/FlowState/internal/models"
)

// minSegments is the least number of comma segments worth parsing.
const minSegments = 2

// parse is the working state of one extraction. anchor is the phone segment index or -1.
type parse struct {
	name    string
	phone   string
	address string
	anchor  int
}

func (p parse) complete() bool {
	return p.name != "" && p.phone != "" && p.address != ""
}

// Extract parses name, phone and address out of text. Absent fields are empty.
func Extract(text string) models.GuestInfo {
	cleaned := clean(text)
	if cleaned == "" {
		return models.GuestInfo{}
	}
	segments := splitSegments(cleaned)
	if len(segments) < minSegments {
		return models.GuestInfo{}
	}

	var p parse
	if phone, idx := findPhoneAnchor(segments); idx >= 0 {
		p = splitAroundAnchor(segments, phone, idx)
	} else {
		p = positional(segments)
	}
	p = reconcile(segments, p)

	return models.GuestInfo{
		Name:    strings.TrimSpace(p.name),
		Phone:   strings.TrimSpace(p.phone),
		Address: strings.TrimSpace(p.address),
	}
}

// splitAroundAnchor assigns the segments before the phone to the name and the ones after it to the address.
func splitAroundAnchor(segments []string, phone string, idx int) parse {
	p := parse{phone: phone, anchor: idx}
	if idx > 0 {
		p.name = joinName(segments[:idx])
	}
	if idx < len(segments)-1 {
		p.address = joinAddress(segments[idx+1:])
	}
	return p
}

// positional handles lines with no recognizable phone: segment 0 is the name and
// segment 1 is retried on its own as a phone before the rest becomes the address.
func positional(segments []string) parse {
	p := parse{name: segments[0], anchor: -1}
	if phone, ok := matchDigits(segments[1]); ok {
		p.phone = phone
		p.anchor = 1
		if len(segments) > 2 {
			p.address = joinAddress(segments[2:])
		}
		return p
	}
	p.address = joinAddress(segments[1:])
	return p
}

// reconcile fills fields still missing on lines of three or more segments.
// The anchor segment is never reused as a name or address.
func reconcile(segments []string, p parse) parse {
	if len(segments) < 3 || p.complete() {
		return p
	}

	if p.name == "" && p.anchor != 0 {
		p.name = segments[0]
	}
	if p.phone == "" {
		if phone, ok := matchDigits(segments[1]); ok {
			p.phone = phone
			p.anchor = 1
		}
	}
	if p.address == "" {
		switch {
		case p.anchor >= 0 && p.anchor < len(segments)-1:
			p.address = joinAddress(segments[p.anchor+1:])
		case p.anchor < 0:
			p.address = joinAddress(segments[1:])
		}
	}
	return p
}
