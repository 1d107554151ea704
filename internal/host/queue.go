package host

import "github.com/roach88/factory/internal/ir"

// subMsgQueue is the FIFO of sub-messages still to run in a unit of work.
// A unit runs on one goroutine, so the queue does no locking.
type subMsgQueue struct {
	msgs []ir.SubMsg
}

func (q *subMsgQueue) push(msgs ...ir.SubMsg) {
	q.msgs = append(q.msgs, msgs...)
}

// pop removes and returns the front sub-message.
func (q *subMsgQueue) pop() (ir.SubMsg, bool) {
	if len(q.msgs) == 0 {
		return ir.SubMsg{}, false
	}
	m := q.msgs[0]
	// Drop the reference so the msg bytes can be collected.
	q.msgs[0] = ir.SubMsg{}
	if len(q.msgs) == 1 {
		q.msgs = q.msgs[:0]
	} else {
		q.msgs = q.msgs[1:]
	}
	return m, true
}
