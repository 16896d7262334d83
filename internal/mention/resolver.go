// Package mention turns free-form comment text into resolved user IDs.
//
// Extraction scans for "@" followed by word characters; resolution issues
// one batched lookup against active users' display names. Tokens with no
// matching user are dropped silently, a user-facing soft-fail.
package mention

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/domain"
)

// Policy controls how a token matching more than one user resolves.
type Policy string

// Collision policies. PolicyFirst picks the oldest matching account;
// PolicySkip drops the ambiguous token entirely.
const (
	PolicyFirst Policy = "first"
	PolicySkip  Policy = "skip"
)

var tokenPattern = regexp.MustCompile(`@(\w+)`)

// Extract returns the raw mention tokens in text in appearance order.
// Tokens are the word characters following each "@", case-sensitive and
// not deduplicated; resolution performs the deduplication.
func Extract(text string) []string {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, m[1])
	}
	return tokens
}

// UserLookup is the read-only capability the resolver needs: a batched
// lookup of active users by display name, ordered oldest account first.
type UserLookup interface {
	FindByNames(ctx context.Context, names []string) ([]*domain.User, error)
}

// Resolver resolves mention tokens to user identifiers.
type Resolver struct {
	users  UserLookup
	policy Policy
}

// NewResolver creates a Resolver with the given lookup and collision policy.
// An unknown policy falls back to PolicyFirst.
func NewResolver(users UserLookup, policy Policy) *Resolver {
	if policy != PolicySkip {
		policy = PolicyFirst
	}
	return &Resolver{users: users, policy: policy}
}

// Resolve extracts mention tokens from text and resolves them to user IDs.
// The result is deduplicated and ordered by the first appearance of the
// corresponding token in the text. Text without any "@" returns an empty
// result without issuing a lookup.
func (r *Resolver) Resolve(ctx context.Context, text string) ([]uuid.UUID, error) {
	users, err := r.ResolveUsers(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// ResolveUsers is Resolve returning the full user records, which the
// notification fan-out needs for recipient names and addresses.
func (r *Resolver) ResolveUsers(ctx context.Context, text string) ([]*domain.User, error) {
	tokens := Extract(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	// One batched lookup over the distinct token set.
	seen := make(map[string]struct{}, len(tokens))
	distinct := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		distinct = append(distinct, tok)
	}

	users, err := r.users.FindByNames(ctx, distinct)
	if err != nil {
		return nil, err
	}

	byName := make(map[string][]*domain.User, len(users))
	for _, u := range users {
		byName[u.Name] = append(byName[u.Name], u)
	}

	resolved := make([]*domain.User, 0, len(distinct))
	used := make(map[uuid.UUID]struct{}, len(distinct))
	for _, tok := range tokens {
		matches := byName[tok]
		var match *domain.User
		switch {
		case len(matches) == 1:
			match = matches[0]
		case len(matches) > 1 && r.policy == PolicyFirst:
			// FindByNames orders oldest first.
			match = matches[0]
		default:
			// No match, or ambiguous under PolicySkip.
			continue
		}

		if _, ok := used[match.ID]; ok {
			continue
		}
		used[match.ID] = struct{}{}
		resolved = append(resolved, match)
	}

	return resolved, nil
}
