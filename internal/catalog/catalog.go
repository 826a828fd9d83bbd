package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/visabuddy/ai-service/internal/checklist"
	"github.com/visabuddy/ai-service/internal/normalizer"
	"github.com/visabuddy/ai-service/pkg/logger"
)

var ErrNoRuleset = errors.New("no ruleset available for country/visa category")

// Condition is a closed predicate over ApplicantProfile fields. Exactly the
// ops listed here exist; anything else is a configuration error caught at
// evaluation time, never a crash.
type Condition struct {
	Op    string      `json:"op"`
	Field string      `json:"field,omitempty"`
	Value string      `json:"value,omitempty"`
	Args  []Condition `json:"args,omitempty"`
}

const (
	OpEquals    = "eq"
	OpIsTrue    = "isTrue"
	OpIsFalse   = "isFalse"
	OpIsUnknown = "isUnknown"
	OpAnd       = "and"
	OpOr        = "or"
)

type BaseDocument struct {
	DocumentType string             `json:"documentType"`
	Category     checklist.Category `json:"category"`
	Required     bool               `json:"required"`
}

type ConditionalDocument struct {
	Condition    Condition          `json:"condition"`
	DocumentType string             `json:"documentType"`
	Category     checklist.Category `json:"category"`
	Required     bool               `json:"required"`
}

type RiskAdjustment struct {
	RiskLevel       checklist.RiskLevel `json:"riskLevel"`
	AddDocumentType string              `json:"addDocumentType"`
	Category        checklist.Category  `json:"category"`
}

type Entry struct {
	Country              string                `json:"country"`
	VisaCategory         string                `json:"visaCategory"`
	Version              int                   `json:"version"`
	BaseDocuments        []BaseDocument        `json:"baseDocuments"`
	ConditionalDocuments []ConditionalDocument `json:"conditionalDocuments,omitempty"`
	RiskAdjustments      []RiskAdjustment      `json:"riskAdjustments,omitempty"`
}

// Catalog holds all loaded rulesets keyed by (country, visaCategory). Reload
// swaps the whole map atomically; lookups see either the old or the new set.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	path    string
	norm    *normalizer.Normalizer
}

func New(path string, norm *normalizer.Normalizer) *Catalog {
	return &Catalog{
		entries: make(map[string]*Entry),
		path:    path,
		norm:    norm,
	}
}

func key(country, visaCategory string) string {
	return strings.ToUpper(strings.TrimSpace(country)) + "/" + strings.ToLower(strings.TrimSpace(visaCategory))
}

// Load reads every *.json file under the catalog directory. Malformed files
// are skipped with a log entry; Load only errors when the directory itself
// cannot be read.
func (c *Catalog) Load() error {
	files, err := filepath.Glob(filepath.Join(c.path, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to list catalog directory: %w", err)
	}

	loaded := make(map[string]*Entry, len(files))
	skipped := 0

	for _, file := range files {
		entry, err := c.loadFile(file)
		if err != nil {
			logger.Warn("skipping malformed catalog entry",
				zap.String("file", file),
				zap.Error(err),
			)
			skipped++
			continue
		}
		loaded[key(entry.Country, entry.VisaCategory)] = entry
	}

	c.mu.Lock()
	c.entries = loaded
	c.mu.Unlock()

	logger.Info("rule catalog loaded",
		zap.String("path", c.path),
		zap.Int("entries", len(loaded)),
		zap.Int("skipped", skipped),
	)

	return nil
}

func (c *Catalog) loadFile(file string) (*Entry, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse entry: %w", err)
	}

	if entry.Country == "" || entry.VisaCategory == "" {
		return nil, fmt.Errorf("entry missing country or visaCategory")
	}
	if len(entry.BaseDocuments) == 0 {
		return nil, fmt.Errorf("entry has no base documents")
	}

	c.checkDocumentTypes(&entry)

	return &entry, nil
}

// checkDocumentTypes logs document types that do not resolve through the
// normalizer. A misconfigured type never blocks loading; the raw value is
// carried through generation as-is.
func (c *Catalog) checkDocumentTypes(entry *Entry) {
	nctx := normalizer.Context{
		Where:        "catalog.Load",
		CountryCode:  entry.Country,
		VisaCategory: entry.VisaCategory,
	}

	for _, doc := range entry.BaseDocuments {
		c.norm.Normalize(doc.DocumentType, nctx)
	}
	for _, doc := range entry.ConditionalDocuments {
		c.norm.Normalize(doc.DocumentType, nctx)
	}
	for _, adj := range entry.RiskAdjustments {
		c.norm.Normalize(adj.AddDocumentType, nctx)
	}
}

func (c *Catalog) Lookup(country, visaCategory string) (*Entry, error) {
	c.mu.RLock()
	entry, ok := c.entries[key(country, visaCategory)]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrNoRuleset
	}
	return entry, nil
}

// Put registers an entry directly, bypassing the file loader. Used by tests
// and by seed data.
func (c *Catalog) Put(entry *Entry) {
	c.mu.Lock()
	c.entries[key(entry.Country, entry.VisaCategory)] = entry
	c.mu.Unlock()
}

func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
