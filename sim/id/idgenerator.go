// Package id generates identifiers for frames, accesses and runs.
package id

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator can generate IDs.
type IDGenerator interface {
	Generate() string
}

var (
	generatorLock sync.Mutex
	generator     IDGenerator = NewSequentialIDGenerator()
)

// Generate returns a new ID from the process-wide generator.
func Generate() string {
	generatorLock.Lock()
	g := generator
	generatorLock.Unlock()

	return g.Generate()
}

// UseGlobalUniqueIDs switches the process-wide generator to xid based IDs,
// which stay unique across runs that share a trace database.
func UseGlobalUniqueIDs() {
	generatorLock.Lock()
	defer generatorLock.Unlock()

	generator = xidGenerator{}
}

// UseSequentialIDs switches the process-wide generator back to a fresh
// sequential generator. Sequential IDs make test output deterministic.
func UseSequentialIDs() {
	generatorLock.Lock()
	defer generatorLock.Unlock()

	generator = NewSequentialIDGenerator()
}

// NewSequentialIDGenerator returns a generator that counts from 1.
func NewSequentialIDGenerator() IDGenerator {
	return &sequentialIDGenerator{}
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)
	return strconv.FormatUint(idNumber, 10)
}

type xidGenerator struct{}

func (xidGenerator) Generate() string {
	return xid.New().String()
}
