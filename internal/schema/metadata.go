package schema

import (
	"time"

	"github.com/google/uuid"
)

// Format versions written into metadata.
const (
	FormatVersion    = "0.1"
	SetFormatVersion = "2.0"
)

// TimeLayout is the creation_time layout.
const TimeLayout = "2006-01-02T15:04:05Z"

type Producer struct {
	Name        string
	Version     string
	CommandLine string
}

// Task describes the verification task the witness belongs to.
type Task struct {
	InputFiles      []string
	InputFileHashes map[string]string
	DataModel       string
	Language        string
	Specification   string
}

type Metadata struct {
	FormatVersion string
	UUID          string
	CreationTime  time.Time
	Producer      Producer
	Task          *Task
}

// NewMetadata mints metadata with a fresh uuid for one entry of kind k.
func NewMetadata(k Kind, producer Producer, task *Task) Metadata {
	version := FormatVersion
	if k == KindInvariantSet {
		version = SetFormatVersion
	}
	return Metadata{
		FormatVersion: version,
		UUID:          uuid.NewString(),
		CreationTime:  time.Now().UTC().Truncate(time.Second),
		Producer:      producer,
		Task:          task,
	}
}

// Location is a source position inside a witness. Column is 1-based in
// memory and 0-based on the wire.
type Location struct {
	File     string
	FileHash string
	Line     int
	Column   int
	Function string
}

// ColumnToWitness converts a 1-based source column to the written column.
func ColumnToWitness(c int) int { return c - 1 }

// ColumnFromWitness converts a written column back to a source column.
func ColumnFromWitness(c int) int { return c + 1 }

// Invariant is invariant text with its semantic class and syntax.
type Invariant struct {
	Text   string
	Type   string
	Format string
}

const (
	TypeAssertion = "assertion"
	FormatC       = "C"
	FormatCExpr   = "c_expression"
)

// Assertion returns a C assertion invariant.
func Assertion(text string) Invariant {
	return Invariant{Text: text, Type: TypeAssertion, Format: FormatC}
}

// Target references the certified entry.
type Target struct {
	UUID     string
	Type     Kind
	FileHash string
}

// Certification is the verdict a certificate signs.
type Certification struct {
	Confirmed bool
}

func (c Certification) tag() string {
	if c.Confirmed {
		return "confirmed"
	}
	return "rejected"
}
