// Package metadata normalizes third-party package and repository
// descriptors into canonical skill descriptor inputs.
//
// Raw descriptors arrive from external metadata providers (npm package
// manifests, repository scans) in loosely structured form. This package
// owns the canonicalization rules: repository location parsing, wallet
// address validation, keyword cleanup and the deterministic skill ID
// derivation shared with the registry.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

// Raw is a descriptor as supplied by a metadata provider. Fields mirror
// the package manifest shape; anything may be missing.
type Raw struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Repository    string   `json:"repository"`
	Author        string   `json:"author"`
	WalletAddress string   `json:"wallet_address"`
	Platform      string   `json:"platform"`
	Keywords      []string `json:"keywords"`
	Stars         int      `json:"stars"`
}

// Descriptor is a normalized, validated skill descriptor input, ready
// for registration.
type Descriptor struct {
	Name          string
	Platform      string
	Description   string
	RepositoryURL string
	CreatorWallet string
	Keywords      []string
	Stars         int
}

var (
	walletPattern  = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	ownerRepoShort = regexp.MustCompile(`^[^/\s]+/[^/\s]+$`)
	githubPattern  = regexp.MustCompile(`github\.com/([^/\s]+)/([^/\s]+)`)
)

const defaultPlatform = "myskills"

// Normalize validates raw metadata and produces a canonical descriptor.
func Normalize(raw Raw) (Descriptor, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrValidation, ErrMissingName)
	}
	if strings.TrimSpace(raw.Repository) == "" {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrValidation, ErrMissingRepository)
	}
	repoURL, err := ParseRepositoryURL(raw.Repository)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	wallet := strings.TrimSpace(raw.WalletAddress)
	if wallet == "" {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrValidation, ErrMissingWallet)
	}
	if !ValidWallet(wallet) {
		return Descriptor{}, fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidWallet, wallet)
	}

	platform := strings.TrimSpace(raw.Platform)
	if platform == "" {
		platform = defaultPlatform
	}

	return Descriptor{
		Name:          name,
		Platform:      platform,
		Description:   strings.TrimSpace(raw.Description),
		RepositoryURL: repoURL,
		CreatorWallet: strings.ToLower(wallet),
		Keywords:      normalizeKeywords(raw.Keywords),
		Stars:         max(raw.Stars, 0),
	}, nil
}

// ParseRepositoryURL canonicalizes a repository location to a full
// https URL. Accepted forms: full https URLs, github.com/owner/repo,
// github:owner/repo, gh:owner/repo and bare owner/repo.
func ParseRepositoryURL(raw string) (string, error) {
	loc := strings.TrimSpace(raw)
	loc = strings.TrimPrefix(loc, "github:")
	loc = strings.TrimPrefix(loc, "gh:")

	if m := githubPattern.FindStringSubmatch(loc); m != nil {
		return githubURL(m[1], strings.TrimSuffix(m[2], ".git")), nil
	}
	if ownerRepoShort.MatchString(loc) {
		parts := strings.SplitN(loc, "/", 2)
		return githubURL(parts[0], strings.TrimSuffix(parts[1], ".git")), nil
	}
	// Non-GitHub locations pass through when they look like URLs.
	if strings.HasPrefix(loc, "https://") || strings.HasPrefix(loc, "http://") {
		return strings.TrimSuffix(loc, "/"), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRepository, raw)
}

func githubURL(owner, repo string) string {
	return "https://github.com/" + owner + "/" + repo
}

// ValidWallet reports whether addr is a well-formed chain address.
func ValidWallet(addr string) bool {
	return walletPattern.MatchString(addr)
}

// SkillID derives the stable identifier for a skill from its canonical
// repository URL and name. The same source always yields the same ID,
// which is what makes registration idempotent.
func SkillID(repositoryURL, name string) string {
	sum := sha256.Sum256([]byte(repositoryURL + "\n" + slug.Make(name)))
	return "0x" + hex.EncodeToString(sum[:])
}

func normalizeKeywords(keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
