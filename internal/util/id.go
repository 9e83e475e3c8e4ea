// Package util provides shared helpers for FarmaVet.
package util

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator provides thread-safe UUIDv7 generation with monotonic timestamps.
// Stock movements use these so the primary key sorts by creation time.
type IDGenerator struct {
	mu       sync.Mutex
	lastTime int64
	counter  uint16
}

// NewIDGenerator creates a new ID generator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// NewID generates a new UUIDv7 identifier from this generator.
func (g *IDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()

	if now == g.lastTime {
		g.counter++
		if g.counter == 0 {
			// Counter overflow, wait for next millisecond
			for now == g.lastTime {
				time.Sleep(time.Microsecond * 100)
				now = time.Now().UnixMilli()
			}
			g.counter = 0
		}
	} else {
		g.lastTime = now
		g.counter = 0
	}

	return generateUUIDv7(now, g.counter)
}

var generator = &IDGenerator{}

// NewID generates a new UUIDv7 identifier from the package generator.
// UUIDv7 provides time-ordered identifiers for better database index locality.
func NewID() string {
	return generator.NewID()
}

// generateUUIDv7 creates a UUIDv7 from a timestamp and counter.
func generateUUIDv7(unixMilli int64, counter uint16) string {
	var id [16]byte

	// First 48 bits: Unix timestamp in milliseconds (big endian)
	binary.BigEndian.PutUint32(id[0:4], uint32(unixMilli>>16))
	binary.BigEndian.PutUint16(id[4:6], uint16(unixMilli))

	// Set version to 7
	id[6] = 0x70 | (byte(counter>>8) & 0x0F)
	id[7] = byte(counter)

	var randomBytes [8]byte
	rand.Read(randomBytes[:])
	copy(id[8:], randomBytes[:])
	id[8] = (id[8] & 0x3F) | 0x80 // Set variant to RFC 4122

	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		binary.BigEndian.Uint32(id[0:4]),
		binary.BigEndian.Uint16(id[4:6]),
		binary.BigEndian.Uint16(id[6:8]),
		binary.BigEndian.Uint16(id[8:10]),
		id[10:16],
	)
}

// NewUUID generates a standard UUIDv4 (random) identifier.
// Use NewID() for most cases; this is for compatibility.
func NewUUID() string {
	return uuid.New().String()
}

// ParseID validates and parses a UUID string.
func ParseID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid ID format: %w", err)
	}
	return id.String(), nil
}

// IsValidID checks if a string is a valid UUID format.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// CodeGenerator suggests medicine codes in the house format.
// Format: {prefix}{3-digit sequence}, e.g. DOG004. The prefix comes from
// the animal type the medicine is for.
type CodeGenerator struct {
	mu      sync.Mutex
	lastSeq map[string]int
}

// NewCodeGenerator creates a new code generator.
func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{lastSeq: make(map[string]int)}
}

// Observe records an existing code so suggestions skip past it.
// Call this for each code loaded from the database.
func (c *CodeGenerator) Observe(code string) {
	prefix, seq, err := ParseMedicineCode(code)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq > c.lastSeq[prefix] {
		c.lastSeq[prefix] = seq
	}
}

// Next suggests the next code for the given prefix.
func (c *CodeGenerator) Next(prefix string) string {
	prefix = strings.ToUpper(prefix)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSeq[prefix]++
	return fmt.Sprintf("%s%03d", prefix, c.lastSeq[prefix])
}

// ParseMedicineCode splits a code into its alphabetic prefix and numeric
// sequence. Codes without a trailing number return an error.
func ParseMedicineCode(code string) (prefix string, sequence int, err error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	i := len(code)
	for i > 0 && code[i-1] >= '0' && code[i-1] <= '9' {
		i--
	}
	if i == len(code) || i == 0 {
		return "", 0, fmt.Errorf("invalid medicine code format: %q", code)
	}
	if _, err := fmt.Sscanf(code[i:], "%d", &sequence); err != nil {
		return "", 0, fmt.Errorf("invalid medicine code format: %w", err)
	}
	return code[:i], sequence, nil
}

// DeterministicID generates a deterministic ID for testing purposes.
// DO NOT use in production - use NewID() instead.
func DeterministicID(seed int64) string {
	var id [16]byte

	binary.BigEndian.PutUint64(id[0:8], uint64(seed))
	binary.BigEndian.PutUint64(id[8:16], uint64(seed*31))

	// Set version 4 and variant
	id[6] = (id[6] & 0x0F) | 0x40
	id[8] = (id[8] & 0x3F) | 0x80

	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		binary.BigEndian.Uint32(id[0:4]),
		binary.BigEndian.Uint16(id[4:6]),
		binary.BigEndian.Uint16(id[6:8]),
		binary.BigEndian.Uint16(id[8:10]),
		id[10:16],
	)
}
