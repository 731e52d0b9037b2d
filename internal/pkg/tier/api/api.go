package api

import (
	"context"
	"strings"
)

// Variant is a lookup result kind name, the same names are used in the fallback trigger set
type Variant string

const (
	VFull       Variant = "full"
	VPartial    Variant = "partial"
	VProcessing Variant = "processing"
	VNotFound   Variant = "not_found"
	VNoMatch    Variant = "no_match"
	VError      Variant = "error"
)

// Variants lists all known result kinds
var Variants = []Variant{VFull, VPartial, VProcessing, VNotFound, VNoMatch, VError}

// CreditsExceeded is the Error message signaling provider quota exhaustion
const CreditsExceeded = "CREDITS_EXCEEDED"

// LookupResult is one of Full, Partial, Processing, NotFound, NoMatch or Error
type LookupResult interface {
	Variant() Variant
	Credits() int
	lookupResult()
}

// Client fetches a classified transcript lookup result for an episode
type Client interface {
	Name() string
	FetchTranscript(ctx context.Context, feedURL, guid string) LookupResult
}

// Full - complete transcript
type Full struct {
	Text            string
	WordCount       int
	CreditsConsumed int
}

// Partial - incomplete transcript
type Partial struct {
	Text            string
	WordCount       int
	CreditsConsumed int
	Reason          string
}

// Processing - transcript generation is in progress
type Processing struct {
	CreditsConsumed int
}

// NotFound - episode matched, but there is no transcript
type NotFound struct {
	CreditsConsumed int
}

// NoMatch - episode is not in provider's catalog
type NoMatch struct {
	CreditsConsumed int
}

// Error - the call failed
type Error struct {
	Message string
	// CreditsConsumed is non zero only if credits were spent before the failure
	CreditsConsumed int
}

func (Full) Variant() Variant       { return VFull }
func (Partial) Variant() Variant    { return VPartial }
func (Processing) Variant() Variant { return VProcessing }
func (NotFound) Variant() Variant   { return VNotFound }
func (NoMatch) Variant() Variant    { return VNoMatch }
func (Error) Variant() Variant      { return VError }

func (r Full) Credits() int       { return r.CreditsConsumed }
func (r Partial) Credits() int    { return r.CreditsConsumed }
func (r Processing) Credits() int { return r.CreditsConsumed }
func (r NotFound) Credits() int   { return r.CreditsConsumed }
func (r NoMatch) Credits() int    { return r.CreditsConsumed }
func (r Error) Credits() int      { return r.CreditsConsumed }

func (Full) lookupResult()       {}
func (Partial) lookupResult()    {}
func (Processing) lookupResult() {}
func (NotFound) lookupResult()   {}
func (NoMatch) lookupResult()    {}
func (Error) lookupResult()      {}

// Quota returns true if the error signals provider quota exhaustion
func (r Error) Quota() bool {
	return r.Message == CreditsExceeded
}

// CountWords counts whitespace separated words
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// IsVariant checks if s is a known variant name
func IsVariant(s string) bool {
	for _, v := range Variants {
		if string(v) == s {
			return true
		}
	}
	return false
}
