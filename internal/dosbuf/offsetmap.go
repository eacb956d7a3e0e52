package dosbuf

// initialMapSize is the table capacity allocated on first growth.
const initialMapSize = 1000

// mapEntry is one correspondence point of an OffsetMap.
type mapEntry struct {
	pos int64 // position in the normalized stream
	add int64 // CRs to add back for positions before pos
}

// OffsetMap maps positions in a CR-stripped stream back to positions in the
// original input.
//
// Layout of entries[0:in+1]:
//   - entries[0] is the sentinel (0, 0).
//   - entries[k].pos for 1 <= k < in is the boundary recorded for the k-th
//     stripped CR run; entries[k].add is the CR count before that run.
//   - entries[in] is provisional: its add is the total CR count so far and
//     its pos is one byte past the last run. The next run overwrites its pos.
//
// A position p in [entries[k-1].pos, entries[k].pos) translates to
// p + entries[k].add. Positions never decrease from one entry to the next.
//
// The zero value is an empty map. An OffsetMap is not safe for concurrent use.
type OffsetMap struct {
	entries []mapEntry
	in      int // index of the provisional entry, 0 while empty
	out     int // lookup cursor, kept between calls
}

// Reset forgets all entries. The backing storage is kept for reuse.
func (m *OffsetMap) Reset() {
	m.in = 0
	m.out = 1
}

// Runs returns the number of CR runs recorded since the last Reset.
func (m *OffsetMap) Runs() int {
	if m.in == 0 {
		return 0
	}
	return m.in - 1
}

// grow makes room for the entry after the provisional one.
func (m *OffsetMap) grow() {
	if m.in < len(m.entries)-1 {
		return
	}
	size := initialMapSize
	if m.in > 0 {
		size = m.in * 2
	}
	entries := make([]mapEntry, size)
	copy(entries, m.entries)
	m.entries = entries
}

// record adds the boundary for a CR run that ended with the write cursor at
// dest. total is the CR count including this run. If the run was followed by
// LF the boundary is placed after the LF, so a line appears to end before
// its CR rather than after it.
func (m *OffsetMap) record(dest, total int64, lf bool) {
	m.grow()

	if m.in == 0 {
		m.entries[0] = mapEntry{}
		m.in = 1
		m.entries[1].add = 0
		m.out = 1
	}

	boundary := dest
	if lf {
		boundary++
	}
	m.in++
	m.entries[m.in-1].pos = boundary
	m.entries[m.in] = mapEntry{pos: dest + 1, add: total}
}

// extend grows the last recorded run to a new CR total.
func (m *OffsetMap) extend(total int64) {
	if m.in == 0 {
		return
	}
	m.entries[m.in].add = total
}

// pushPastLF moves the last recorded boundary past an LF that turned up
// after the run had been recorded.
func (m *OffsetMap) pushPastLF() {
	if m.in == 0 {
		return
	}
	m.entries[m.in-1].pos++
}

// Translate converts a position in the normalized stream into a position in
// the original input. Lookups start from where the previous one ended, so
// sequential queries cost O(1) amortized; any order is accepted.
func (m *OffsetMap) Translate(pos int64) int64 {
	if m.in == 0 {
		return pos
	}

	for m.out < m.in && pos >= m.entries[m.out].pos {
		m.out++
	}
	// Index 0 is the sentinel; never retreat onto it.
	for m.out > 1 && pos < m.entries[m.out-1].pos {
		m.out--
	}

	return pos + m.entries[m.out].add
}
