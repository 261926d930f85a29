// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

// Package contract holds the usage-contract document model carried by
// stored agreements, together with rule and duty extraction helpers.
package contract

import (
	"encoding/json"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RuleKind tags an extracted rule with the clause it came from.
type RuleKind string

const (
	KindPermission  RuleKind = "permission"
	KindProhibition RuleKind = "prohibition"
)

// Duty actions understood by the enforcement loop.
const (
	ActionDelete = "delete"
)

// Document is the deserialized form of an agreement's contract value.
type Document struct {
	ID           string     `json:"id,omitempty"`
	Provider     string     `json:"provider,omitempty"`
	Consumer     string     `json:"consumer,omitempty"`
	Start        *time.Time `json:"start,omitempty"`
	End          *time.Time `json:"end,omitempty"`
	Permissions  []Rule     `json:"permissions,omitempty"`
	Prohibitions []Rule     `json:"prohibitions,omitempty"`
}

// Rule is a single permission or prohibition clause. Target carries the
// provider-side artifact identifier the clause governs.
type Rule struct {
	Kind        RuleKind   `json:"-"`
	Target      string     `json:"target"`
	Title       string     `json:"title,omitempty"`
	NotBefore   *time.Time `json:"not_before,omitempty"`
	NotAfter    *time.Time `json:"not_after,omitempty"`
	MaxAccess   *int64     `json:"max_access,omitempty"`
	MaxDuration *Duration  `json:"max_duration,omitempty"`
	Connectors  []string   `json:"connectors,omitempty"`
	LogAccess   bool       `json:"log_access,omitempty"`
	PostDuties  []Duty     `json:"post_duties,omitempty"`
}

// Duration carries a usage period on the wire as a Go duration string,
// e.g. "72h".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

func (d *Duration) UnmarshalJSON(value []byte) error {
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	d.Duration = parsed

	return nil
}

// Duty is a post-access obligation attached to a rule. Exactly one of
// After or MaxAccess is expected to be set.
type Duty struct {
	Action    string     `json:"action"`
	After     *time.Time `json:"after,omitempty"`
	MaxAccess *int64     `json:"max_access,omitempty"`
}

// Decode parses a serialized contract document.
func Decode(value []byte) (*Document, error) {
	if len(value) == 0 {
		return nil, status.Error(codes.InvalidArgument, "empty contract value")
	}

	doc := &Document{}
	if err := json.Unmarshal(value, doc); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "failed to decode contract: %v", err)
	}

	return doc, nil
}

// Encode serializes a contract document for storage on an agreement.
func Encode(doc *Document) ([]byte, error) {
	value, err := json.Marshal(doc)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "failed to encode contract: %v", err)
	}

	return value, nil
}

// ExtractRules returns all rules of the document with their kind tagged.
func ExtractRules(doc *Document) []Rule {
	rules := make([]Rule, 0, len(doc.Permissions)+len(doc.Prohibitions))

	for _, rule := range doc.Permissions {
		rule.Kind = KindPermission
		rules = append(rules, rule)
	}

	for _, rule := range doc.Prohibitions {
		rule.Kind = KindProhibition
		rules = append(rules, rule)
	}

	return rules
}

// RulesForTarget returns the document's rules governing the given
// artifact remote identifier.
func RulesForTarget(doc *Document, target string) []Rule {
	var rules []Rule

	for _, rule := range ExtractRules(doc) {
		if rule.Target == target {
			rules = append(rules, rule)
		}
	}

	return rules
}

// Targets returns the distinct artifact remote identifiers governed by
// the document, in rule order.
func Targets(doc *Document) []string {
	var targets []string

	seen := make(map[string]bool)
	for _, rule := range ExtractRules(doc) {
		if rule.Target == "" || seen[rule.Target] {
			continue
		}

		seen[rule.Target] = true
		targets = append(targets, rule.Target)
	}

	return targets
}

// DutyIsDue reports whether a post-access duty has lapsed. Time-keyed
// duties become due once now passes the deadline; count-keyed duties
// become due once the artifact's access counter reaches the bound.
func DutyIsDue(duty Duty, now time.Time, numAccessed int64) bool {
	if duty.Action != ActionDelete {
		return false
	}

	if duty.After != nil {
		return now.After(*duty.After)
	}

	if duty.MaxAccess != nil {
		return numAccessed >= *duty.MaxAccess
	}

	return false
}
