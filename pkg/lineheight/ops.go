package lineheight

// opKind names a pending operation variant.
type opKind int

const (
	opUpsert opKind = iota
	opRemove
	opLinesInserted
	opLinesDeleted
)

// String returns the kind name used in logs and metrics.
func (k opKind) String() string {
	switch k {
	case opUpsert:
		return "upsert"
	case opRemove:
		return "remove"
	case opLinesInserted:
		return "lines_inserted"
	case opLinesDeleted:
		return "lines_deleted"
	default:
		return "unknown"
	}
}

// op is a queued mutation. The set of variants is closed.
type op interface {
	kind() opKind
}

type upsertOp struct {
	r Range
}

type removeOp struct {
	id string
}

type linesInsertedOp struct {
	from, to int
	seeds    []Range
}

type linesDeletedOp struct {
	from, to int
}

func (upsertOp) kind() opKind        { return opUpsert }
func (removeOp) kind() opKind        { return opRemove }
func (linesInsertedOp) kind() opKind { return opLinesInserted }
func (linesDeletedOp) kind() opKind  { return opLinesDeleted }

// opLog is the ordered queue of mutations not yet applied to the store.
type opLog struct {
	ops []op
}

func (l *opLog) enqueue(o op) {
	l.ops = append(l.ops, o)
}

func (l *opLog) len() int {
	return len(l.ops)
}

// drain hands every queued op to fn in submission order and empties the log.
// The backing array is kept for the next burst.
func (l *opLog) drain(fn func(op)) int {
	n := len(l.ops)

	for i, o := range l.ops {
		fn(o)
		l.ops[i] = nil
	}

	l.ops = l.ops[:0]

	return n
}
