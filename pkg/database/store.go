// Package database provides the JSON document stores and the ledgers built on
// top of them. Every operation reads the whole document, mutates it in memory
// and writes the whole document back.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"github.com/PancyStudios/PancyLedger/pkg/models"
	"github.com/goccy/go-json"
)

var (
	ErrDocumentMissing  = errors.New("document does not exist")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrUnknownLoadMode  = errors.New("unknown load mode")
	// ErrWarningIDsExhausted is returned when the highest stored warning id
	// is the largest int64 and no greater id can be allocated.
	ErrWarningIDsExhausted = errors.New("warning ids exhausted")
)

// LoadMode selects what happens when a stored document cannot be read.
type LoadMode int

const (
	// LoadFailOpen substitutes an empty document and logs a warning.
	LoadFailOpen LoadMode = iota
	// LoadStrict returns ErrStoreUnavailable to the caller.
	LoadStrict
)

// String returns the configuration name of the mode
func (m LoadMode) String() string {
	if m == LoadStrict {
		return "strict"
	}
	return "failopen"
}

// ParseLoadMode parses "failopen" or "strict"
func ParseLoadMode(s string) (LoadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "failopen", "fail-open":
		return LoadFailOpen, nil
	case "strict":
		return LoadStrict, nil
	}
	return LoadFailOpen, fmt.Errorf("%w: %q", ErrUnknownLoadMode, s)
}

// Backend persists one serialized document.
// Read returns ErrDocumentMissing when nothing has been written yet.
type Backend interface {
	Name() string
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Document is implemented by the persisted document types
type Document interface {
	Normalize()
}

type documentPtr[T any] interface {
	*T
	Document
}

// DocumentStore serializes access to a single JSON document. The mutex is
// held across a whole read-modify-write so writers sharing a store never
// lose each other's updates. Separate processes sharing a file still can.
type DocumentStore[T any, P documentPtr[T]] struct {
	backend Backend
	mode    LoadMode
	mu      sync.Mutex
}

// WarningsStore holds users, warnings and ban requests
type WarningsStore = DocumentStore[models.WarningsDocument, *models.WarningsDocument]

// LicensesStore holds the license indexes and history
type LicensesStore = DocumentStore[models.LicensesDocument, *models.LicensesDocument]

// NewDocumentStore creates a store over backend
func NewDocumentStore[T any, P documentPtr[T]](backend Backend, mode LoadMode) *DocumentStore[T, P] {
	return &DocumentStore[T, P]{
		backend: backend,
		mode:    mode,
	}
}

// NewWarningsStore creates the store for the warnings document
func NewWarningsStore(backend Backend, mode LoadMode) *WarningsStore {
	return NewDocumentStore[models.WarningsDocument](backend, mode)
}

// NewLicensesStore creates the store for the licenses document
func NewLicensesStore(backend Backend, mode LoadMode) *LicensesStore {
	return NewDocumentStore[models.LicensesDocument](backend, mode)
}

// Mode returns the configured load mode
func (s *DocumentStore[T, P]) Mode() LoadMode {
	return s.mode
}

// Ensure writes an empty document if none exists yet
func (s *DocumentStore[T, P]) Ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.backend.Read(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrDocumentMissing) {
		// Leave unreadable documents alone, load() decides what to do with them
		logger.Warn(fmt.Sprintf("No se pudo verificar el documento '%s': %v", s.backend.Name(), err), "Store")
		return nil
	}

	logger.System(fmt.Sprintf("Creando documento vacío '%s'", s.backend.Name()), "Store")
	return s.save(ctx, s.empty())
}

// View loads the document and passes it to fn
func (s *DocumentStore[T, P]) View(ctx context.Context, fn func(doc P) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	return fn(doc)
}

// Update loads the document, applies fn and writes the result back when fn
// reports a change.
func (s *DocumentStore[T, P]) Update(ctx context.Context, fn func(doc P) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}

	changed, err := fn(doc)
	if err != nil || !changed {
		return err
	}
	return s.save(ctx, doc)
}

func (s *DocumentStore[T, P]) empty() P {
	doc := P(new(T))
	doc.Normalize()
	return doc
}

func (s *DocumentStore[T, P]) load(ctx context.Context) (P, error) {
	data, err := s.backend.Read(ctx)
	if errors.Is(err, ErrDocumentMissing) {
		return s.empty(), nil
	}
	if err == nil {
		doc := P(new(T))
		if err = json.Unmarshal(data, doc); err == nil {
			doc.Normalize()
			return doc, nil
		}
	}

	if s.mode == LoadStrict {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, s.backend.Name(), err)
	}
	logger.Warn(fmt.Sprintf("Error cargando '%s', usando documento vacío: %v", s.backend.Name(), err), "Store")
	return s.empty(), nil
}

func (s *DocumentStore[T, P]) save(ctx context.Context, doc P) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.backend.Name(), err)
	}
	if err := s.backend.Write(ctx, data); err != nil {
		logger.Error(fmt.Sprintf("Error guardando '%s': %v", s.backend.Name(), err), "Store")
		return fmt.Errorf("writing %s: %w", s.backend.Name(), err)
	}
	return nil
}
