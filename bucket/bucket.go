// Package bucket maps free-text genre tags onto the six canonical buckets.
//
// The mapping is a pure function over a curated rules asset: an exact-match
// table of known genre strings, then an ordered list of keyword containment
// rules for compound or unseen tags ("swedish death metal" matches "metal").
// The same asset carries the artist-name alias table and the display-name
// heuristics the evidence collector falls back on.
package bucket

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/choiniere/bucketlist/data"
)

//go:embed rules.yaml
var rulesAsset []byte

// A Mapper answers bucket lookups against one loaded rules asset. Mappers
// are immutable after Load and safe for concurrent use.
type Mapper struct {
	version   int
	stoplist  map[string]struct{}
	spellings map[string]string
	exact     map[string]data.Bucket
	keywords  []keywordRule
	aliases   map[string]data.Bucket
	nameHints []nameHint
}

type keywordRule struct {
	Match  string
	Bucket data.Bucket
}

type nameHint struct {
	Contains string
	Bucket   data.Bucket
}

type rulesFile struct {
	Version   int                 `yaml:"version"`
	Stoplist  []string            `yaml:"stoplist"`
	Spellings map[string]string   `yaml:"spellings"`
	Exact     map[string][]string `yaml:"exact"`
	Keywords  []struct {
		Match  string `yaml:"match"`
		Bucket string `yaml:"bucket"`
	} `yaml:"keywords"`
	Aliases   map[string]string `yaml:"aliases"`
	NameHints []struct {
		Contains string `yaml:"contains"`
		Bucket   string `yaml:"bucket"`
	} `yaml:"name_hints"`
}

// Default parses the embedded rules asset. The asset is versioned and ships
// with the binary, so a parse failure is a build defect, not a runtime
// condition.
func Default() *Mapper {
	m, err := Load(rulesAsset)
	if err != nil {
		panic(err)
	}
	return m
}

// Load parses a rules asset and validates every bucket name it mentions.
func Load(asset []byte) (*Mapper, error) {
	var file rulesFile
	if err := yaml.Unmarshal(asset, &file); err != nil {
		return nil, fmt.Errorf("error parsing bucket rules: %w", err)
	}

	m := &Mapper{
		version:   file.Version,
		stoplist:  make(map[string]struct{}, len(file.Stoplist)),
		spellings: make(map[string]string, len(file.Spellings)),
		exact:     map[string]data.Bucket{},
		aliases:   map[string]data.Bucket{},
	}

	for _, tag := range file.Stoplist {
		m.stoplist[Normalize(tag)] = struct{}{}
	}
	for from, to := range file.Spellings {
		m.spellings[Normalize(from)] = Normalize(to)
	}
	for bucketName, tags := range file.Exact {
		bucket, err := parseBucket(bucketName)
		if err != nil {
			return nil, err
		}
		for _, tag := range tags {
			m.exact[Normalize(tag)] = bucket
		}
	}
	for _, kw := range file.Keywords {
		bucket, err := parseBucket(kw.Bucket)
		if err != nil {
			return nil, err
		}
		m.keywords = append(m.keywords, keywordRule{Normalize(kw.Match), bucket})
	}
	for name, bucketName := range file.Aliases {
		bucket, err := parseBucket(bucketName)
		if err != nil {
			return nil, err
		}
		m.aliases[Normalize(name)] = bucket
	}
	for _, hint := range file.NameHints {
		bucket, err := parseBucket(hint.Bucket)
		if err != nil {
			return nil, err
		}
		m.nameHints = append(m.nameHints, nameHint{Normalize(hint.Contains), bucket})
	}

	return m, nil
}

func parseBucket(name string) (data.Bucket, error) {
	for _, b := range data.Buckets {
		if string(b) == name {
			return b, nil
		}
	}
	return "", fmt.Errorf("bucket rules name unknown bucket '%s'", name)
}

// Version reports the rules asset's version stamp.
func (m *Mapper) Version() int { return m.version }

// MapTag maps one raw genre tag to a bucket: exact table first, then the
// ordered keyword rules. The second return is false when no rule matches;
// callers treat that as "no evidence", never as an error.
func (m *Mapper) MapTag(tag string) (data.Bucket, bool) {
	normalized, ok := m.prepare(tag)
	if !ok {
		return "", false
	}
	if bucket, ok := m.exact[normalized]; ok {
		return bucket, true
	}
	for _, kw := range m.keywords {
		if strings.Contains(normalized, kw.Match) {
			return kw.Bucket, true
		}
	}
	return "", false
}

// MapTags maps an ordered tag list to a single bucket. The exact table is
// consulted first across all tags in input order; only then do the keyword
// rules run, in rule order, so a precise tag anywhere in the list beats a
// fuzzy match on an earlier one.
func (m *Mapper) MapTags(tags []string) (data.Bucket, bool) {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		if n, ok := m.prepare(tag); ok {
			normalized = append(normalized, n)
		}
	}
	for _, tag := range normalized {
		if bucket, ok := m.exact[tag]; ok {
			return bucket, true
		}
	}
	for _, kw := range m.keywords {
		for _, tag := range normalized {
			if strings.Contains(tag, kw.Match) {
				return kw.Bucket, true
			}
		}
	}
	return "", false
}

// Known reports whether a tag would produce a bucket. The seed subcommand
// uses it to find genre names the asset doesn't cover yet.
func (m *Mapper) Known(tag string) bool {
	_, ok := m.MapTag(tag)
	return ok
}

// Alias looks up the curated artist-name override table. It covers artists
// whose catalog entry carries no tags at all: orchestras, cast albums, and
// the like.
func (m *Mapper) Alias(artistName string) (data.Bucket, bool) {
	bucket, ok := m.aliases[Normalize(artistName)]
	return bucket, ok
}

// FromName applies the display-name heuristics ("... Orchestra" is
// classical, "... Cast Recording" is musical).
func (m *Mapper) FromName(artistName string) (data.Bucket, bool) {
	normalized := Normalize(artistName)
	for _, hint := range m.nameHints {
		if strings.Contains(normalized, hint.Contains) {
			return hint.Bucket, true
		}
	}
	return "", false
}

// prepare normalizes a tag, applies spelling canonicalization, and filters
// the generic-tag stoplist.
func (m *Mapper) prepare(tag string) (string, bool) {
	normalized := Normalize(tag)
	if normalized == "" {
		return "", false
	}
	if canonical, ok := m.spellings[normalized]; ok {
		normalized = canonical
	}
	if _, stopped := m.stoplist[normalized]; stopped {
		return "", false
	}
	return normalized, true
}

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, strips diacritics, and collapses separator runs so
// that "Française/Señor_Rock" and "francaise senor rock" compare equal.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if folded, _, err := transform.String(deaccent, s); err == nil {
		s = folded
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '_':
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
