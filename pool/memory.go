package pool

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Memory mirrors the teacher's database/btree.Memory: a byte count with
// unit-conversion helpers and a thousands-separated String().
type Memory uint64

const (
	KiB float64 = 1 << (10 * iota)
	MiB
	GiB
)

func (m Memory) Bytes() uint64 { return uint64(m) }
func (m Memory) KiB() float64  { return float64(m) / KiB }
func (m Memory) MiB() float64  { return float64(m) / MiB }
func (m Memory) GiB() float64  { return float64(m) / GiB }

func (m Memory) String() string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d bytes", m.Bytes())
}
